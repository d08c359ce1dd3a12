package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/config"
	"github.com/pressly/goose/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestReceiptsMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_checkout_receipts.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no receipts migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS checkout_receipts",
		"CONSTRAINT checkout_receipts_order_id_key UNIQUE (order_id)",
		"CHECK (item_count > 0)",
		"CREATE INDEX IF NOT EXISTS idx_checkout_receipts_user_created",
		"DROP TABLE IF EXISTS checkout_receipts",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDir(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("expected shipped migrations to validate: %v", err)
	}
	if err := ValidateDir(""); err != nil {
		t.Fatalf("expected embedded migrations to validate: %v", err)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Receipt Notes!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_receipt_notes.sql") {
		t.Fatalf("unexpected path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for name that sanitizes to empty")
	}

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first, err := createAt(dir, "notes", at)
	if err != nil || filepath.Base(first) != "20260301090000_notes.sql" {
		t.Fatalf("unexpected path %s err %v", first, err)
	}
	if _, err := createAt(dir, "notes", at); err == nil {
		t.Fatal("expected existing migration to be refused")
	}
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	applied, err := Run(ctx, sqlDB, config.DriverSQLite, "", "up")
	if err != nil {
		t.Fatalf("goose up: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("expected one embedded migration applied, got %v", applied)
	}
	if !conn.Migrator().HasTable("checkout_receipts") {
		t.Fatal("expected checkout_receipts table after up")
	}

	status, err := Run(ctx, sqlDB, config.DriverSQLite, "migrations", "status")
	if err != nil || len(status) != 1 || !strings.HasPrefix(status[0], "applied") {
		t.Fatalf("unexpected status %v err %v", status, err)
	}
	if _, err := Run(ctx, sqlDB, config.DriverSQLite, "", "down"); err != nil {
		t.Fatalf("goose down: %v", err)
	}
	if conn.Migrator().HasTable("checkout_receipts") {
		t.Fatal("expected checkout_receipts table to be dropped after down")
	}
}

func TestDialect(t *testing.T) {
	if Dialect(config.DriverSQLite) != goose.DialectSQLite3 {
		t.Fatal("sqlite driver should map to sqlite3")
	}
	if Dialect(config.DriverPostgres) != goose.DialectPostgres || Dialect("") != goose.DialectPostgres {
		t.Fatal("postgres should be the default dialect")
	}
}
