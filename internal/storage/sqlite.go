package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/birdsql/birdsql/internal/errors"
)

// Open opens a SQLite database file for querying. Only SELECT and pragma-style
// introspection statements are ever issued against it, so the file is opened
// in read-only mode. A missing or unreadable file surfaces as a database
// error; this is the one introspection failure that is not absorbed.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", filepath.ToSlash(path))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to open database %s", path)
	}

	// One connection, opened and closed around each use. The pipeline is
	// strictly sequential, so pooling buys nothing and would let two pragma
	// scans interleave.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase, "failed to ping database %s", path)
	}

	return db, nil
}

// With opens the database at path, runs fn against it, and closes it again.
func With(path string, fn func(db *sql.DB) error) error {
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return fn(db)
}
