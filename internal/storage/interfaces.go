package storage

import (
	"context"

	"memecoin-sniper/internal/domain"
)

// LaunchStore provides access to launch_records storage.
// Insert-once semantics back the launch deduplicator's first-source-wins rule.
type LaunchStore interface {
	// Insert adds a new launch record. Returns ErrDuplicateKey if token_address exists.
	Insert(ctx context.Context, r *domain.LaunchRecord) error

	// GetByAddress retrieves a launch record by token address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, tokenAddress string) (*domain.LaunchRecord, error)

	// GetBySource retrieves all launch records detected by a given feed.
	GetBySource(ctx context.Context, source string) ([]*domain.LaunchRecord, error)

	// GetByTimeRange retrieves launch records detected within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LaunchRecord, error)
}

// TradeRecordStore provides access to the append-only trade audit trail.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if order_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its order ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, orderID string) (*domain.TradeRecord, error)

	// GetByToken retrieves all trades for a token address, ordered by timestamp ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves trades within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error)
}

// MentionArchiveStore persists raw mention events for offline analytics.
// Retention (the 7-day archival window) is enforced by the backing table,
// not by callers.
type MentionArchiveStore interface {
	// InsertBulk appends multiple mention events.
	InsertBulk(ctx context.Context, events []*domain.MentionEvent) error

	// GetBySymbol retrieves archived mentions for a symbol, ordered by timestamp ASC.
	GetBySymbol(ctx context.Context, symbol string) ([]*domain.MentionEvent, error)

	// GetByTimeRange retrieves mentions for a symbol within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.MentionEvent, error)
}
