package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSQLMigrationWritesValidFile(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))

	path, err := createSQLMigrationAt(dir, " Add Order Notes! ", at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260302030000_add_order_notes.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.Contains(t, string(data), "-- rollback add_order_notes")
	require.NoError(t, Validate(DirSource(dir)))
}

func TestCreateSQLMigrationRejectsVersionClash(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	_, err := createSQLMigrationAt(dir, "first", at)
	require.NoError(t, err)
	_, err = createSQLMigrationAt(dir, "second", at)
	require.ErrorContains(t, err, "already used")
}

func TestCreateSQLMigrationRejectsEmptyNames(t *testing.T) {
	for _, name := range []string{"", "   ", "!!!"} {
		_, err := createSQLMigrationAt(t.TempDir(), name, time.Now())
		assert.Error(t, err, name)
	}
}
