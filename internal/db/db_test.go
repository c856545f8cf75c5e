package db

import (
	"path/filepath"
	"testing"
)

func TestInit_SQLiteRunsMigrations(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "test.db") + "?_pragma=foreign_keys(1)"

	conn, err := Init("sqlite", dsn)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close(conn)

	if err := RunMigrations(conn.DB, "sqlite"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	for _, table := range []string{"babies", "growth_records", "milestones", "media_items", "orphaned_blobs"} {
		var n int
		err := conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table)
		if err != nil {
			t.Fatalf("query sqlite_master: %v", err)
		}
		if n != 1 {
			t.Errorf("table %q missing after migrations", table)
		}
	}

	if err := MigrateDown(conn.DB, "sqlite"); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}

	var n int
	if err := conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'babies'`); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("babies table still present after MigrateDown")
	}
}

func TestGetDialect(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"sqlite", "sqlite3"},
		{"pgx", "postgres"},
		{"clickhouse", "clickhouse"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			if got := getDialect(tt.driver); got != tt.want {
				t.Errorf("getDialect(%q) = %q, want %q", tt.driver, got, tt.want)
			}
		})
	}
}
