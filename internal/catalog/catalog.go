package catalog

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a tenant or run does not exist.
var ErrNotFound = errors.New("not found")

// connParams are go-sqlite3 DSN options applied to every pooled connection.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Catalog holds the tenants and services queries resolve against, and the
// history of every run.
type Catalog struct {
	db *sql.DB
}

// Open creates the catalog at path, or opens it if it exists. The schema is
// created idempotently.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// One writer at a time; a single connection also keeps the pragmas uniform.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("open catalog %s: create schema: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
