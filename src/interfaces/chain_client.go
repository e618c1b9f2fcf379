package interfaces

import (
	"context"
	"math/big"
)

// -----------------------------------------------------------------------------
// IChainClient reads the two chain facts the stats bar shows.
// -----------------------------------------------------------------------------

// BlockSummary is the part of the latest block the poller needs
type BlockSummary struct {
	Number  uint64
	TxCount int64
}

type IChainClient interface {

	// LatestBlock returns the number and transaction count of the newest block.
	LatestBlock(ctx context.Context) (BlockSummary, error)

	// GasPrice returns the current gas price in wei.
	GasPrice(ctx context.Context) (*big.Int, error)
}
