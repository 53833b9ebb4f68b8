package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glowhaus/storefront-backend/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestRunUpOnSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	require.NoError(t, Run(context.Background(), sqlDB, "sqlite3", "up"))

	for _, table := range []string{"products", "orders", "order_items", "cart_snapshots"} {
		assert.True(t, conn.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestCreateAndValidateDir(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Reviews Table!")
	require.NoError(t, err)
	assert.Regexp(t, `\d{14}_add_reviews_table\.sql$`, filepath.Base(path))
	require.NoError(t, ValidateDir(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("select 1;"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateKeepsVersionsIncreasing(t *testing.T) {
	dir := t.TempDir()
	frozen := func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }

	first, err := createSQLMigration(dir, "add shade swatches", frozen)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := createSQLMigration(dir, "  Index  orders -- by status ", frozen)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if filepath.Base(first) != "20260501120000_add_shade_swatches.sql" {
		t.Fatalf("unexpected first name %s", filepath.Base(first))
	}
	if filepath.Base(second) != "20260501120001_index_orders_by_status.sql" {
		t.Fatalf("unexpected second name %s", filepath.Base(second))
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if _, err := createSQLMigration(dir, "!!!", frozen); err == nil {
		t.Fatal("expected an error for a name with no usable characters")
	}
}
