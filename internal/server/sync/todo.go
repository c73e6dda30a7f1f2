package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddepu11/DimensionServer/internal/models"
	"github.com/ddepu11/DimensionServer/internal/server/storage"
)

// todoKeyPrefix префикс ключей todo в патче
const todoKeyPrefix = "todo/"

// TodoMutators возвращает полный набор todo-мутаций для реестра
func TodoMutators() []Mutator {
	return []Mutator{
		&createTodo{},
		&updateTodo{},
		&deleteTodo{},
	}
}

// decodeArgs разбирает аргументы мутации, помечая провал как ErrBadMutationArgs
func decodeArgs(name string, args json.RawMessage, v any) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: failed to decode %s args: %v", ErrBadMutationArgs, name, err)
	}
	return nil
}

// createTodoArgs аргументы мутации createTodo
type createTodoArgs struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Order   int64  `json:"order"`
}

// createTodo создает новую задачу. Новая задача всегда не выполнена.
type createTodo struct{}

func (m *createTodo) Name() string { return "createTodo" }

func (m *createTodo) Apply(ctx context.Context, tx storage.Tx, args json.RawMessage, version uint64) error {
	var a createTodoArgs
	if err := decodeArgs(m.Name(), args, &a); err != nil {
		return err
	}

	todo := &models.Todo{
		ID:        a.ID,
		Content:   a.Content,
		Order:     a.Order,
		Completed: false,
		Version:   version,
	}

	if err := tx.InsertTodo(ctx, todo); err != nil {
		return fmt.Errorf("failed to create todo %q: %w", a.ID, err)
	}

	return nil
}

// updateTodoArgs аргументы мутации updateTodo.
// nil поле означает "не менять".
type updateTodoArgs struct {
	Content   *string `json:"content"`
	Order     *int64  `json:"order"`
	Completed *bool   `json:"completed"`
	ID        string  `json:"id"`
}

// updateTodo частично обновляет существующую задачу.
// Конфликты конкурентных правок разрешаются last-writer-wins:
// порядок версий и есть порядок применения.
type updateTodo struct{}

func (m *updateTodo) Name() string { return "updateTodo" }

func (m *updateTodo) Apply(ctx context.Context, tx storage.Tx, args json.RawMessage, version uint64) error {
	var a updateTodoArgs
	if err := decodeArgs(m.Name(), args, &a); err != nil {
		return err
	}

	todo, err := tx.GetTodo(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("failed to load todo %q: %w", a.ID, err)
	}

	if a.Content != nil {
		todo.Content = *a.Content
	}
	if a.Order != nil {
		todo.Order = *a.Order
	}
	if a.Completed != nil {
		todo.Completed = *a.Completed
	}
	todo.Version = version

	if err := tx.UpdateTodo(ctx, todo); err != nil {
		return fmt.Errorf("failed to update todo %q: %w", a.ID, err)
	}

	return nil
}

// deleteTodoArgs аргументы мутации deleteTodo
type deleteTodoArgs struct {
	ID string `json:"id"`
}

// deleteTodo помечает задачу удаленной (soft delete).
// Строка остается в таблице, чтобы pull мог отдать "del" операцию
// клиентам, у которых задача еще есть локально.
type deleteTodo struct{}

func (m *deleteTodo) Name() string { return "deleteTodo" }

func (m *deleteTodo) Apply(ctx context.Context, tx storage.Tx, args json.RawMessage, version uint64) error {
	var a deleteTodoArgs
	if err := decodeArgs(m.Name(), args, &a); err != nil {
		return err
	}

	todo, err := tx.GetTodo(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("failed to load todo %q: %w", a.ID, err)
	}

	todo.Deleted = true
	todo.Version = version

	if err := tx.UpdateTodo(ctx, todo); err != nil {
		return fmt.Errorf("failed to delete todo %q: %w", a.ID, err)
	}

	return nil
}
