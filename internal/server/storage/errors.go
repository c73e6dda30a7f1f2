package storage

import "errors"

// Common storage errors
var (
	// ErrTodoNotFound indicates that todo row was not found
	ErrTodoNotFound = errors.New("todo not found")

	// ErrTodoAlreadyExists indicates that todo with this id already exists
	ErrTodoAlreadyExists = errors.New("todo already exists")

	// ErrServerRowMissing indicates that the replicache_server row is absent.
	// This can only happen if migrations did not run.
	ErrServerRowMissing = errors.New("server version row missing")
)
