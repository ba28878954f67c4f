// Package store persists the collection of saved QR code records.
package store

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateID is returned when a record with the same id is already stored.
	ErrDuplicateID = errors.New("store: duplicate id")
	// ErrNotFound is returned when no stored record has the requested id.
	ErrNotFound = errors.New("store: record not found")
)

// KeyValue is the storage boundary underneath LocalStore. Values are opaque
// strings written and read as a whole.
type KeyValue interface {
	// Get returns the value stored under key; found is false when it is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Update performs an atomic read-modify-write of key. An error from fn
	// aborts the write and is returned unchanged.
	Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error
}

// Flusher is a KeyValue that can list and drop every key it holds.
type Flusher interface {
	KeyValue
	Keys(ctx context.Context) ([]string, error)
	Flush(ctx context.Context) error
}
