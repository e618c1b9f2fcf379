package storage

import (
	"bytes"
	"path/filepath"
	"testing"

	"market-simulator/src/helpers"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *models.MConfig {
	return &models.MConfig{
		Name: "market-simulator",
		Storage: models.MStorageConfig{
			Enabled: true,
			DBType:  "sqlite",
			DBPath:  filepath.Join(t.TempDir(), "archive.db"),
		},
	}
}

func openSQLite(t *testing.T) *SQLiteDB {
	t.Helper()
	db := NewSQLiteDB(sqliteConfig(t), logger.NewLoggerWithWriter("sqlite-test", &bytes.Buffer{}))
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteSaveCandles(t *testing.T) {
	db := openSQLite(t)

	candles := []models.MCandle{
		{Open: 142, High: 143.5, Low: 141.2, Close: 143.1, Volume: 420},
		{Open: 143.1, High: 144, Low: 142.8, Close: 142.9, Volume: 77},
	}
	require.NoError(t, db.SaveCandles("MON/USDC", candles, 1700000004000))
	require.NoError(t, db.SaveCandles("MON/USDC", nil, 1700000008000))

	var count int
	require.NoError(t, db.DB.QueryRow(`SELECT COUNT(*) FROM candles`).Scan(&count))
	assert.Equal(t, 2, count)

	var symbol string
	var closedAt int64
	var high float64
	require.NoError(t, db.DB.QueryRow(`SELECT symbol, closed_at, high FROM candles ORDER BY id LIMIT 1`).Scan(&symbol, &closedAt, &high))
	assert.Equal(t, "MON/USDC", symbol)
	assert.Equal(t, int64(1700000004000), closedAt)
	assert.Equal(t, 143.5, high)
}

func TestSQLiteSaveNetworkStats(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, db.SaveNetworkStats(models.MNetworkStats{
		TPS: 4821, BlockHeight: 48000012, GasPrice: "52.00", BlockTime: "1s", IsLive: true, State: "LIVE", Timestamp: 1700000002000,
	}))

	var state, gas string
	var live bool
	var height int64
	require.NoError(t, db.DB.QueryRow(`SELECT state, gas_price, is_live, block_height FROM network_stats`).Scan(&state, &gas, &live, &height))
	assert.Equal(t, "LIVE", state)
	assert.Equal(t, "52.00", gas)
	assert.True(t, live)
	assert.Equal(t, int64(48000012), height)
}

func TestSQLiteReopenKeepsHistory(t *testing.T) {
	cfg := sqliteConfig(t)
	log := logger.NewLoggerWithWriter("sqlite-test", &bytes.Buffer{})

	first := NewSQLiteDB(cfg, log)
	require.NoError(t, first.Initialize())
	require.NoError(t, first.SaveNetworkStats(models.MNetworkStats{State: "DEMO", Timestamp: 1}))
	require.NoError(t, first.Close())

	second := NewSQLiteDB(cfg, log)
	require.NoError(t, second.Initialize())
	defer second.Close()

	var count int
	require.NoError(t, second.DB.QueryRow(`SELECT COUNT(*) FROM network_stats`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestNewArchive(t *testing.T) {
	disabled := &models.MConfig{Storage: models.MStorageConfig{Enabled: false}}
	archive, err := NewArchive(disabled)
	require.NoError(t, err)
	assert.Nil(t, archive)

	archive, err = NewArchive(sqliteConfig(t))
	require.NoError(t, err)
	require.NotNil(t, archive)
	assert.IsType(t, &SQLiteDB{}, archive)
	assert.NoError(t, archive.Close())

	_, err = NewArchive(&models.MConfig{Storage: models.MStorageConfig{Enabled: true, DBType: "oracle"}})
	assert.Error(t, err)
}

func TestSQLiteInitializeFailureIsDatabaseError(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "archive.db")

	db := NewSQLiteDB(cfg, logger.NewLoggerWithWriter("sqlite-test", &bytes.Buffer{}))
	err := db.Initialize()
	require.Error(t, err)

	var dbErr *helpers.DatabaseError
	assert.ErrorAs(t, err, &dbErr)
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "market_simulator", SchemaName("market-simulator"))
	assert.Equal(t, "mon_usdc_2", SchemaName("MON/USDC 2"))
	assert.Equal(t, "public", SchemaName(""))
}
