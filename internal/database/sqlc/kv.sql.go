package sqldb

import (
	"context"
	"database/sql"
)

type KvStore struct {
	Key       string
	Value     string
	CreatedAt sql.NullTime
	UpdatedAt sql.NullTime
}

const getValue = `SELECT key, value, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) GetValue(ctx context.Context, key string) (KvStore, error) {
	row := q.db.QueryRowContext(ctx, getValue, key)
	var i KvStore
	err := row.Scan(&i.Key, &i.Value, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const upsertValue = `INSERT INTO kv_store (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`

type UpsertValueParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertValue(ctx context.Context, arg UpsertValueParams) error {
	_, err := q.db.ExecContext(ctx, upsertValue, arg.Key, arg.Value)
	return err
}

const deleteValue = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) DeleteValue(ctx context.Context, key string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteValue, key)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listKeys = `SELECT key FROM kv_store ORDER BY key`

func (q *Queries) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		items = append(items, key)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAllValues = `DELETE FROM kv_store`

func (q *Queries) DeleteAllValues(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllValues)
	return err
}
