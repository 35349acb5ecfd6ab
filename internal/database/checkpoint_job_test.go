package database

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointJob(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	_, err = db.Conn().Exec(`INSERT INTO futures_quotes (symbol, data, expires_at) VALUES ('NQ', '{}', 0)`)
	require.NoError(t, err)

	job := NewCheckpointJob(db, zerolog.Nop())
	assert.Equal(t, "wal_checkpoint", job.Name())
	require.NoError(t, job.Run())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.WALSizeBytes)
}

func TestCheckpointJob_ClosedDatabase(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "cache.db"), Profile: ProfileCache, Name: "cache"})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.Error(t, NewCheckpointJob(db, zerolog.Nop()).Run())
}
