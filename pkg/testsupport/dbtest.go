// Package testsupport provides database helpers shared by tests and
// examples.
package testsupport

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewSQLiteMemoryDB opens a process-shared in-memory sqlite database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	return sql.Open("sqlite3", "file::memory:?cache=shared")
}

// NewBunDB wraps an open connection with the bun dialect matching the driver
// name. The translation runtime supports sqlite and postgres.
func NewBunDB(sqlDB *sql.DB, driver string) (*bun.DB, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "pg", "postgres":
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	}
	return nil, fmt.Errorf("testsupport: unsupported driver %q", driver)
}
