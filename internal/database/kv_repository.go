package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/qrforge/qrforge/internal/database/sqlc"
)

// KVEntry is a stored value along with its bookkeeping timestamps.
type KVEntry struct {
	Key       string
	Value     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KVRepository stores string values by key in the kv_store table.
type KVRepository struct {
	ctx *Context
}

// NewKVRepository creates a repository bound to the given database context.
func NewKVRepository(ctx *Context) *KVRepository {
	return &KVRepository{ctx: ctx}
}

// Get returns the value stored under key. The boolean is false when the key
// is absent.
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := r.Find(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

// Find returns the full entry stored under key, or ErrNotFound.
func (r *KVRepository) Find(ctx context.Context, key string) (*KVEntry, error) {
	row, err := queriesFromContext(r.ctx).GetValue(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	return mapKV(row), nil
}

// Put stores value under key, replacing any existing value.
func (r *KVRepository) Put(ctx context.Context, key, value string) error {
	if err := queriesFromContext(r.ctx).UpsertValue(ctx, sqldb.UpsertValueParams{
		Key:   key,
		Value: value,
	}); err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := queriesFromContext(r.ctx).DeleteValue(ctx, key); err != nil {
		return fmt.Errorf("failed to delete key %q: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in lexical order.
func (r *KVRepository) Keys(ctx context.Context) ([]string, error) {
	keys, err := queriesFromContext(r.ctx).ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Flush removes every stored key.
func (r *KVRepository) Flush(_ context.Context) error {
	return ClearDatabase(r.ctx)
}

// Update applies fn to the current value of key inside a transaction and
// stores the result. fn errors abort the update without writing.
func (r *KVRepository) Update(ctx context.Context, key string, fn func(current string, found bool) (string, error)) error {
	return withTx(ctx, r.ctx, func(txCtx context.Context, q *sqldb.Queries) error {
		current := ""
		found := false

		row, err := q.GetValue(txCtx, key)
		switch {
		case err == nil:
			current = row.Value
			found = true
		case errors.Is(err, sql.ErrNoRows):
		default:
			return fmt.Errorf("failed to read key %q: %w", key, err)
		}

		next, err := fn(current, found)
		if err != nil {
			return err
		}

		if err := q.UpsertValue(txCtx, sqldb.UpsertValueParams{Key: key, Value: next}); err != nil {
			return fmt.Errorf("failed to write key %q: %w", key, err)
		}
		return nil
	})
}

func mapKV(row sqldb.KvStore) *KVEntry {
	return &KVEntry{
		Key:       row.Key,
		Value:     row.Value,
		CreatedAt: optionalTime(row.CreatedAt),
		UpdatedAt: optionalTime(row.UpdatedAt),
	}
}

func optionalTime(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time
}
