package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ddepu11/DimensionServer/internal/models"
	"github.com/ddepu11/DimensionServer/internal/server/storage"
)

// serverID идентификатор единственной строки replicache_server
const serverID = 1

// sqlTx реализует storage.Tx поверх database/sql транзакции
type sqlTx struct {
	tx *sql.Tx
}

// ServerVersion reads the global version counter without locking
func (t *sqlTx) ServerVersion(ctx context.Context) (uint64, error) {
	var version uint64

	err := t.tx.QueryRowContext(ctx,
		"SELECT version FROM replicache_server WHERE id = ?", serverID,
	).Scan(&version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrServerRowMissing
		}
		return 0, fmt.Errorf("failed to read server version: %w", err)
	}

	return version, nil
}

// LockServerVersion reads the global version counter under an exclusive lock.
// SQLite не поддерживает SELECT ... FOR UPDATE, поэтому блокировку строки
// берем пустым UPDATE: он эскалирует deferred транзакцию до writer lock,
// который держится до конца транзакции. Это и есть глобальная точка
// сериализации применения мутаций.
func (t *sqlTx) LockServerVersion(ctx context.Context) (uint64, error) {
	result, err := t.tx.ExecContext(ctx,
		"UPDATE replicache_server SET version = version WHERE id = ?", serverID)
	if err != nil {
		return 0, fmt.Errorf("failed to lock server version: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, storage.ErrServerRowMissing
	}

	return t.ServerVersion(ctx)
}

// SetServerVersion writes the global version counter
func (t *sqlTx) SetServerVersion(ctx context.Context, version uint64) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE replicache_server SET version = ? WHERE id = ?", version, serverID)
	if err != nil {
		return fmt.Errorf("failed to set server version: %w", err)
	}

	return nil
}

// LastMutationID returns the last accepted mutation sequence number
// for the client. Returns 0 for a never-seen client.
func (t *sqlTx) LastMutationID(ctx context.Context, clientID string) (uint64, error) {
	var lastMutationID uint64

	err := t.tx.QueryRowContext(ctx,
		"SELECT last_mutation_id FROM replicache_client WHERE id = ?", clientID,
	).Scan(&lastMutationID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Клиент еще не известен серверу
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read last mutation id: %w", err)
	}

	return lastMutationID, nil
}

// SetLastMutationID upserts the client record
func (t *sqlTx) SetLastMutationID(ctx context.Context, clientID, clientGroupID string, mutationID, version uint64) error {
	// Сначала пробуем обновить существующую строку
	result, err := t.tx.ExecContext(ctx, `
		UPDATE replicache_client SET
		    client_group_id = ?,
		    last_mutation_id = ?,
		    version = ?
		WHERE id = ?`,
		clientGroupID, mutationID, version, clientID)
	if err != nil {
		return fmt.Errorf("failed to update client record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		// Клиент виден впервые — создаем строку
		_, err = t.tx.ExecContext(ctx, `
			INSERT INTO replicache_client (
			    id, client_group_id, last_mutation_id, version
			) VALUES (?, ?, ?, ?)`,
			clientID, clientGroupID, mutationID, version)
		if err != nil {
			return fmt.Errorf("failed to insert client record: %w", err)
		}
	}

	return nil
}

// ClientsChangedSince returns clientID -> lastMutationID for all clients
// of the group whose record changed after the given version
func (t *sqlTx) ClientsChangedSince(ctx context.Context, clientGroupID string, version uint64) (map[string]uint64, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, last_mutation_id
		FROM replicache_client
		WHERE client_group_id = ? AND version > ?`,
		clientGroupID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query changed clients: %w", err)
	}
	defer rows.Close()

	changes := make(map[string]uint64)

	for rows.Next() {
		var clientID string
		var lastMutationID uint64

		if err := rows.Scan(&clientID, &lastMutationID); err != nil {
			return nil, fmt.Errorf("failed to scan client record: %w", err)
		}

		changes[clientID] = lastMutationID
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return changes, nil
}

// InsertTodo creates a new todo row stamped with todo.Version
func (t *sqlTx) InsertTodo(ctx context.Context, todo *models.Todo) error {
	// Проверяем, не занят ли id: вставка дубликата — ошибка мутации,
	// а не ошибка инфраструктуры
	var exists int
	err := t.tx.QueryRowContext(ctx,
		"SELECT 1 FROM todo WHERE id = ?", todo.ID).Scan(&exists)
	if err == nil {
		return storage.ErrTodoAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check existing todo: %w", err)
	}

	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO todo (id, content, ord, completed, deleted, version)
		VALUES (?, ?, ?, ?, ?, ?)`,
		todo.ID, todo.Content, todo.Order,
		boolToInt(todo.Completed), boolToInt(todo.Deleted), todo.Version)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}

	return nil
}

// GetTodo retrieves a todo by id, including soft-deleted rows
func (t *sqlTx) GetTodo(ctx context.Context, id string) (*models.Todo, error) {
	todo := &models.Todo{}
	var completed, deleted int

	err := t.tx.QueryRowContext(ctx, `
		SELECT id, content, ord, completed, deleted, version
		FROM todo WHERE id = ?`, id,
	).Scan(&todo.ID, &todo.Content, &todo.Order, &completed, &deleted, &todo.Version)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	todo.Completed = intToBool(completed)
	todo.Deleted = intToBool(deleted)

	return todo, nil
}

// UpdateTodo overwrites an existing todo row, including its version
func (t *sqlTx) UpdateTodo(ctx context.Context, todo *models.Todo) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE todo SET
		    content = ?,
		    ord = ?,
		    completed = ?,
		    deleted = ?,
		    version = ?
		WHERE id = ?`,
		todo.Content, todo.Order,
		boolToInt(todo.Completed), boolToInt(todo.Deleted),
		todo.Version, todo.ID)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTodoNotFound
	}

	return nil
}

// TodosChangedSince returns all todo rows (including soft-deleted)
// with version strictly greater than the given version
func (t *sqlTx) TodosChangedSince(ctx context.Context, version uint64) ([]*models.Todo, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, content, ord, completed, deleted, version
		FROM todo
		WHERE version > ?
		ORDER BY id ASC`, version)
	if err != nil {
		return nil, fmt.Errorf("failed to query changed todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo

	for rows.Next() {
		todo := &models.Todo{}
		var completed, deleted int

		err := rows.Scan(&todo.ID, &todo.Content, &todo.Order,
			&completed, &deleted, &todo.Version)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}

		todo.Completed = intToBool(completed)
		todo.Deleted = intToBool(deleted)

		todos = append(todos, todo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return todos, nil
}

// Helper functions for bool/int conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
