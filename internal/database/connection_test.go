package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/qrforge/qrforge/internal/config"
)

func setupTestDB(t *testing.T) *Context {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("QRFORGE_DIR", tmp)

	ctx, err := CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestDatabaseCreationAndMigration(t *testing.T) {
	ctx := setupTestDB(t)

	dbPath := filepath.Join(config.GetDataDir(), "qrforge.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file to exist at %s: %v", dbPath, err)
	}

	var version int
	var dirty bool
	if err := ctx.DB.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty); err != nil {
		t.Fatalf("failed to read schema_migrations: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("expected clean migration version 1, got %d (dirty=%v)", version, dirty)
	}

	if !tableExists(t, ctx.DB, "kv_store") {
		t.Fatalf("expected table kv_store to exist")
	}
}

func TestCreateDatabaseIsReopenable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "store.db")

	first, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}
	if err := NewKVRepository(first).Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := CloseDatabase(first); err != nil {
		t.Fatalf("CloseDatabase error: %v", err)
	}

	second, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer func() { _ = CloseDatabase(second) }()

	value, found, err := NewKVRepository(second).Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found || value != "v" {
		t.Fatalf("expected persisted value, got %q (found=%v)", value, found)
	}
}

func TestClearDatabaseRemovesAllRows(t *testing.T) {
	ctx := setupTestDB(t)
	repo := NewKVRepository(ctx)
	bg := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := repo.Put(bg, key, "value"); err != nil {
			t.Fatalf("Put(%s) returned error: %v", key, err)
		}
	}

	if err := ClearDatabase(ctx); err != nil {
		t.Fatalf("ClearDatabase returned error: %v", err)
	}

	if count := countRows(t, ctx.DB, "kv_store"); count != 0 {
		t.Fatalf("expected kv_store to be empty, got %d rows", count)
	}
}

func TestCloseDatabaseNil(t *testing.T) {
	if err := CloseDatabase(nil); err != nil {
		t.Fatalf("CloseDatabase(nil) returned error: %v", err)
	}
	if err := ClearDatabase(nil); err != nil {
		t.Fatalf("ClearDatabase(nil) returned error: %v", err)
	}
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count); err != nil {
		t.Fatalf("failed to inspect sqlite_master: %v", err)
	}
	return count == 1
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return count
}
