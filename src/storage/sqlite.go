package storage

import (
	"database/sql"

	"market-simulator/src/helpers"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("SQLite archive ready at %s", dsn)
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	query := `
		CREATE TABLE IF NOT EXISTS candles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			closed_at INTEGER NOT NULL,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume REAL
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create candles", err)
	}

	query = `
		CREATE TABLE IF NOT EXISTS network_stats (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			state TEXT,
			is_live INTEGER,
			tps INTEGER,
			block_height INTEGER,
			gas_price TEXT,
			block_time TEXT
		);
	`
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create network_stats", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveCandles(symbol string, candles []models.MCandle, closedAt int64) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin candles", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO candles (symbol, closed_at, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return helpers.NewDatabaseError("prepare candles", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.Exec(symbol, closedAt, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return helpers.NewDatabaseError("insert candle", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit candles", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveNetworkStats(stats models.MNetworkStats) error {
	_, err := d.DB.Exec(`
		INSERT INTO network_stats (timestamp, state, is_live, tps, block_height, gas_price, block_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, stats.Timestamp, stats.State, stats.IsLive, stats.TPS, int64(stats.BlockHeight), stats.GasPrice, stats.BlockTime)
	if err != nil {
		return helpers.NewDatabaseError("insert network_stats", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
