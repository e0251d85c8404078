// Package iotesting provides shared test utilities for integration tests.
// This is an internal package for test infrastructure only.
package iotesting

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Subaru-PFS/qadb/internal/ioconfig"
	"github.com/Subaru-PFS/qadb/internal/iodb"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/Subaru-PFS/qadb/pkg/db"
)

const (
	// TestDatabaseName is the database name used for all integration tests.
	// This ensures tests never accidentally run against production databases.
	TestDatabaseName = "qadb_test"
)

// GetTestConfig returns a configuration suitable for PostgreSQL
// integration tests. It loads the standard config (config.yaml and
// QADB_* variables) and overrides the database name to
// TestDatabaseName for safety.
//
// Usage in integration tests:
//
//	func TestSomething(t *testing.T) {
//	    if testing.Short() {
//	        t.Skip("Skipping integration test")
//	    }
//	    cfg := iotesting.GetTestConfig()
//	    // ... use cfg for database operations
//	}
func GetTestConfig() *config.Config {
	home, _ := os.UserHomeDir()
	cfg, err := ioconfig.Load(home)
	if err != nil {
		// Broken config file, use defaults
		cfg = config.New()
	}

	// Always use test database for safety
	cfg.Database.URL = ""
	cfg.Database.Driver = string(db.Postgres)
	cfg.Database.Database = TestDatabaseName

	return cfg
}

// GetTestDatabaseConfig returns only the database configuration for tests.
// This is useful when you only need database config without the full Config struct.
func GetTestDatabaseConfig() *config.DatabaseConfig {
	cfg := GetTestConfig()
	return &cfg.Database
}

// SQLiteConfig returns a configuration of a private in-memory SQLite
// database.
func SQLiteConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Driver: string(db.SQLite),
		Path:   ":memory:",
	}
}

// SQLiteFileConfig returns a configuration of a SQLite file inside a
// temporary directory removed when the test finishes.
func SQLiteFileConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	return &config.DatabaseConfig{
		Driver: string(db.SQLite),
		Path:   filepath.Join(t.TempDir(), "qadb.sqlite"),
	}
}

// ConnectSQLite returns a connected in-memory SQLite operator that is
// closed when the test finishes.
func ConnectSQLite(t *testing.T) db.Operator {
	t.Helper()
	return connect(t, SQLiteConfig())
}

// ConnectPostgres returns an operator connected to TestDatabaseName.
// The test is skipped in short mode. All tables of the test database
// are dropped before the test starts.
func ConnectPostgres(t *testing.T) db.Operator {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}
	op := connect(t, GetTestDatabaseConfig())
	if err := op.DropAllTables(context.Background()); err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}
	return op
}

func connect(t *testing.T, cfg *config.DatabaseConfig) db.Operator {
	t.Helper()
	op, err := iodb.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open %s database: %v", cfg.Driver, err)
	}
	t.Cleanup(func() { _ = op.Close() })
	return op
}

// SetupTempHome creates a temporary home directory for a test and
// points HOME to it, so commands never touch the real
// ~/.config/qadb. QADB_* variables are cleared for the duration of the
// test.
func SetupTempHome(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, ioconfig.EnvPrefix+"_") {
			// Setenv registers the restore, Unsetenv hides the variable
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return home
}
