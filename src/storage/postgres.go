package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"market-simulator/src/helpers"
	"market-simulator/src/logger"
	"market-simulator/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		Config: cfg,
		Schema: SchemaName(cfg.Name),
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// SchemaName turns the service name into a safe identifier ("market-simulator" -> "market_simulator")
func SchemaName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "public"
	}
	return b.String()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	d.DB = db

	// Create Schema
	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", d.Schema), err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."candles" (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			closed_at BIGINT NOT NULL,
			open DOUBLE PRECISION,
			high DOUBLE PRECISION,
			low DOUBLE PRECISION,
			close DOUBLE PRECISION,
			volume DOUBLE PRECISION
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create candles", err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s"."network_stats" (
			id BIGSERIAL PRIMARY KEY,
			timestamp BIGINT NOT NULL,
			state TEXT,
			is_live BOOLEAN,
			tps BIGINT,
			block_height BIGINT,
			gas_price TEXT,
			block_time TEXT
		);
	`, d.Schema)
	if _, err := d.DB.Exec(query); err != nil {
		return helpers.NewDatabaseError("create network_stats", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveCandles(symbol string, candles []models.MCandle, closedAt int64) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin candles", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."candles" (symbol, closed_at, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveNetworkStats(stats models.MNetworkStats) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."network_stats" (timestamp, state, is_live, tps, block_height, gas_price, block_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.Schema)
	_, err := d.DB.Exec(query, stats.Timestamp, stats.State, stats.IsLive, stats.TPS, int64(stats.BlockHeight), stats.GasPrice, stats.BlockTime)
	if err != nil {
		return helpers.NewDatabaseError("insert network_stats", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
