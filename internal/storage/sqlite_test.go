package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.sqlite")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t (name) VALUES ('a'), ('b')`)
	require.NoError(t, err)

	return path
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.sqlite"))
	assert.Error(t, err)
}

func TestOpenReadOnly(t *testing.T) {
	path := createFixture(t)

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&count))
	assert.Equal(t, 2, count)

	_, err = db.Exec(`INSERT INTO t (name) VALUES ('c')`)
	assert.Error(t, err, "read-only connection must reject writes")
}

func TestWithClosesAfterUse(t *testing.T) {
	path := createFixture(t)

	var seen int
	err := With(path, func(db *sql.DB) error {
		return db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&seen)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, seen)
}
