package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE futures_quotes (symbol TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_futures_quotes_expires ON futures_quotes(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

// fixedClock returns a repository whose clock can be moved by the test
func fixedClock(repo *Repository, start time.Time) *time.Time {
	now := start
	repo.now = func() time.Time { return now }
	return &now
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	start := time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
	fixedClock(repo, start)

	err := repo.Store(TableFuturesQuotes, "NQ", map[string]interface{}{"price": 21500.25}, time.Hour)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM futures_quotes WHERE symbol = ?", "NQ").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(storedData), &parsed))
	assert.Equal(t, 21500.25, parsed["price"])
	assert.Equal(t, start.Add(time.Hour).Unix(), expiresAt)
}

func TestStore_Upsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableFuturesQuotes, "ES", map[string]float64{"price": 1}, time.Hour))
	require.NoError(t, repo.Store(TableFuturesQuotes, "ES", map[string]float64{"price": 2}, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM futures_quotes").Scan(&count))
	assert.Equal(t, 1, count)

	raw, err := repo.Get(TableFuturesQuotes, "ES")
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":2}`, string(raw))
}

func TestInvalidTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	err := repo.Store("futures_quotes; DROP TABLE futures_quotes", "NQ", 1, time.Hour)
	assert.ErrorContains(t, err, "invalid table name")

	_, err = repo.Get("holdings", "NQ")
	assert.Error(t, err)
	_, err = repo.GetIfFresh("holdings", "NQ")
	assert.Error(t, err)
	_, err = repo.DeleteExpired("holdings")
	assert.Error(t, err)
	_, err = repo.Keys("holdings")
	assert.Error(t, err)
	assert.Error(t, repo.Delete("holdings", "NQ"))
}

func TestGetIfFresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	now := fixedClock(repo, time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC))

	require.NoError(t, repo.Store(TableFuturesQuotes, "GC", map[string]float64{"price": 2650}, time.Minute))

	raw, err := repo.GetIfFresh(TableFuturesQuotes, "GC")
	require.NoError(t, err)
	assert.NotNil(t, raw)

	*now = now.Add(2 * time.Minute)

	raw, err = repo.GetIfFresh(TableFuturesQuotes, "GC")
	require.NoError(t, err)
	assert.Nil(t, raw, "expired data is not fresh")

	raw, err = repo.Get(TableFuturesQuotes, "GC")
	require.NoError(t, err)
	assert.NotNil(t, raw, "expired data is still readable")

	raw, err = repo.GetIfFresh(TableFuturesQuotes, "CL")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestKeysAndDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	for _, sym := range []string{"NQ", "ES", "VIX"} {
		require.NoError(t, repo.Store(TableFuturesQuotes, sym, 1, time.Hour))
	}

	keys, err := repo.Keys(TableFuturesQuotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES", "NQ", "VIX"}, keys)

	require.NoError(t, repo.Delete(TableFuturesQuotes, "NQ"))
	keys, err = repo.Keys(TableFuturesQuotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES", "VIX"}, keys)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	now := fixedClock(repo, time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC))

	require.NoError(t, repo.Store(TableFuturesQuotes, "NQ", 1, time.Minute))
	require.NoError(t, repo.Store(TableFuturesQuotes, "ES", 1, time.Hour))

	*now = now.Add(10 * time.Minute)

	deleted, err := repo.DeleteExpired(TableFuturesQuotes)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{TableFuturesQuotes: 0}, results)

	keys, err := repo.Keys(TableFuturesQuotes)
	require.NoError(t, err)
	assert.Equal(t, []string{"ES"}, keys)
}
