// Package market defines the external market-data capabilities the core
// consumes. Wire formats belong to the implementing collaborators.
package market

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when an external source cannot supply data.
// Callers degrade to no-op-with-retry-on-next-cycle.
var ErrUnavailable = errors.New("market data unavailable")

// Quote is a current market snapshot for a token.
type Quote struct {
	Price     float64
	Liquidity float64
	Volume24h float64
}

// DataSource supplies current market data per token address.
type DataSource interface {
	// GetPrice returns the current quote, or an error wrapping ErrUnavailable.
	GetPrice(ctx context.Context, tokenAddress string) (*Quote, error)
}

// LoadProbe samples recent network load for priority-fee sizing.
type LoadProbe interface {
	// RecentTransactionCount returns the transaction count of the most
	// recent performance sample, or an error wrapping ErrUnavailable.
	RecentTransactionCount(ctx context.Context) (int64, error)
}
