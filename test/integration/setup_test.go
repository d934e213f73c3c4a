//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postop/postop/internal/platform/db"
)

var connStr string

func TestMain(m *testing.M) {
	ctx := context.Background()

	url, cleanup, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
		os.Exit(1)
	}
	connStr = url
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// newSchema migrates a fresh schema and returns a pool whose search_path
// points at it. The schema is dropped when the test ends.
func newSchema(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	schema := "it_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")

	pool, err := db.NewPool(ctx, connStr, schema, 4, 1)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	if _, err := db.NewMigrator(pool, migrationsDir(), schema).Up(ctx); err != nil {
		pool.Close()
		t.Fatalf("migrate %s: %v", schema, err)
	}

	t.Cleanup(func() {
		if _, err := pool.Exec(ctx, "DROP SCHEMA IF EXISTS "+pgx.Identifier{schema}.Sanitize()+" CASCADE"); err != nil {
			t.Logf("warning: failed to drop schema %s: %v", schema, err)
		}
		pool.Close()
	})
	return pool
}
