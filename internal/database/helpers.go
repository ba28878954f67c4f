package database

import (
	"context"
	"fmt"

	sqldb "github.com/qrforge/qrforge/internal/database/sqlc"
)

func queriesFromContext(ctx *Context) *sqldb.Queries {
	if ctx.Queries != nil {
		return ctx.Queries
	}
	return sqldb.New(ctx.DB)
}

func withTx(ctx context.Context, dbCtx *Context, fn func(context.Context, *sqldb.Queries) error) error {
	if dbCtx == nil || dbCtx.DB == nil {
		return fmt.Errorf("database: missing database context")
	}

	tx, err := dbCtx.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	queries := queriesFromContext(dbCtx).WithTx(tx)

	if err := fn(ctx, queries); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return nil
}
