package storage

import (
	"context"

	"github.com/ddepu11/DimensionServer/internal/models"
)

// Tx defines the operations available inside one sync transaction.
// All reads within a ReadTx observe a consistent snapshot; all writes
// within a WriteTx commit atomically or not at all.
type Tx interface {
	// ServerVersion reads the global version counter without locking.
	// Used by pull.
	ServerVersion(ctx context.Context) (uint64, error)

	// LockServerVersion reads the global version counter under an
	// exclusive row lock. Must only be called inside a WriteTx; the lock
	// is held until the transaction commits or rolls back and is the
	// sole serialization point for all mutation application.
	LockServerVersion(ctx context.Context) (uint64, error)

	// SetServerVersion writes the global version counter.
	// Must only be called inside a WriteTx after LockServerVersion.
	SetServerVersion(ctx context.Context, version uint64) error

	// LastMutationID returns the last accepted mutation sequence number
	// for the client. Returns 0 for a never-seen client.
	LastMutationID(ctx context.Context, clientID string) (uint64, error)

	// SetLastMutationID upserts the client record: updates the existing
	// row if present, inserts otherwise. Idempotent under retry.
	SetLastMutationID(ctx context.Context, clientID, clientGroupID string, mutationID, version uint64) error

	// ClientsChangedSince returns clientID -> lastMutationID for all
	// clients of the group whose record changed after the given version.
	ClientsChangedSince(ctx context.Context, clientGroupID string, version uint64) (map[string]uint64, error)

	// InsertTodo creates a new todo row stamped with todo.Version.
	// Returns ErrTodoAlreadyExists if the id is already taken.
	InsertTodo(ctx context.Context, todo *models.Todo) error

	// GetTodo retrieves a todo by id, including soft-deleted rows.
	// Returns ErrTodoNotFound if the row doesn't exist.
	GetTodo(ctx context.Context, id string) (*models.Todo, error)

	// UpdateTodo overwrites an existing todo row, including its version
	// and deleted flag. Returns ErrTodoNotFound if the row doesn't exist.
	UpdateTodo(ctx context.Context, todo *models.Todo) error

	// TodosChangedSince returns all todo rows (including soft-deleted)
	// with version strictly greater than the given version.
	TodosChangedSince(ctx context.Context, version uint64) ([]*models.Todo, error)
}

// SyncStorage defines the transactional store the sync core runs against.
// ReadTx runs fn inside a read-only snapshot transaction; WriteTx runs fn
// inside a writable transaction. In both cases a non-nil error from fn
// rolls the transaction back and is returned as is.
type SyncStorage interface {
	ReadTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	WriteTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
