package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddepu11/DimensionServer/internal/server/storage"
)

// Mutator применяет одну именованную мутацию внутри активной транзакции.
// version — глобальная версия, которой штампуются все доменные записи
// этой мутации. Идемпотентность принятия мутаций обеспечивается выше
// (в Service), сам Mutator вызывается не более одного раза на принятую
// мутацию.
type Mutator interface {
	// Name возвращает имя мутации, под которым она регистрируется
	Name() string

	// Apply выполняет доменные записи мутации внутри tx
	Apply(ctx context.Context, tx storage.Tx, args json.RawMessage, version uint64) error
}

// Registry — статический реестр мутаций: имя -> реализация.
// Набор мутаций фиксируется при старте сервера и дальше не меняется.
type Registry struct {
	mutators map[string]Mutator
}

// NewRegistry создает реестр из переданных мутаций
func NewRegistry(mutators ...Mutator) *Registry {
	r := &Registry{
		mutators: make(map[string]Mutator, len(mutators)),
	}
	for _, m := range mutators {
		r.mutators[m.Name()] = m
	}
	return r
}

// Apply диспатчит мутацию по имени.
// Возвращает ErrUnknownMutation для незарегистрированного имени.
func (r *Registry) Apply(ctx context.Context, tx storage.Tx, name string, args json.RawMessage, version uint64) error {
	m, ok := r.mutators[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMutation, name)
	}

	return m.Apply(ctx, tx, args, version)
}
