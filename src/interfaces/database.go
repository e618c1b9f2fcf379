package interfaces

import "market-simulator/src/models"

// -----------------------------------------------------------------------------
// IArchive defines the contract for the optional write-only archive.
// -----------------------------------------------------------------------------

type IArchive interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveCandles appends candles retired from the chart window.
	SaveCandles(symbol string, candles []models.MCandle, closedAt int64) error

	// -----------------------------------------------------------------------------

	// SaveNetworkStats appends one stats sample.
	SaveNetworkStats(stats models.MNetworkStats) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
