package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, "loads.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN(""))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", sqliteDSN("file:x.db?cache=shared"))
	assert.Equal(t, "x.db?_foreign_keys=off", sqliteDSN("x.db?_foreign_keys=off"))
}

func TestConnectDatabaseSqlite(t *testing.T) {
	db, err := ConnectDatabase("sqlite", filepath.Join(t.TempDir(), "loads.db"))
	require.NoError(t, err)

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)

	require.NoError(t, CloseDatabase(db))
}

func TestConnectDatabaseUnknownDriver(t *testing.T) {
	_, err := ConnectDatabase("oracle", "whatever")
	assert.Error(t, err)
}
