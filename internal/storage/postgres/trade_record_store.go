package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

// Insert adds a new trade. Returns ErrDuplicateKey if order_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.OrderID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO trade_records (
			order_id, token_address, action, amount, price, reason, timestamp_ms, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		t.OrderID, t.TokenAddress, string(t.Action), t.Amount, t.Price,
		t.Reason, t.TimestampMs, t.Status,
	)
	observe("trade_insert", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its order ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, orderID string) (*domain.TradeRecord, error) {
	query := `
		SELECT order_id, token_address, action, amount, price, reason, timestamp_ms, status
		FROM trade_records
		WHERE order_id = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, orderID)

	t, err := scanTradeRecord(row)
	observe("trade_get_by_id", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByToken retrieves all trades for a token address, ordered by timestamp ASC.
func (s *TradeRecordStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT order_id, token_address, action, amount, price, reason, timestamp_ms, status
		FROM trade_records
		WHERE token_address = $1
		ORDER BY timestamp_ms ASC, order_id ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, tokenAddress)
	if err != nil {
		observe("trade_get_by_token", start, err)
		return nil, fmt.Errorf("query trade records by token: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeRecords(rows)
	observe("trade_get_by_token", start, err)
	return records, err
}

// GetByTimeRange retrieves trades within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TradeRecordStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error) {
	query := `
		SELECT order_id, token_address, action, amount, price, reason, timestamp_ms, status
		FROM trade_records
		WHERE timestamp_ms >= $1 AND timestamp_ms <= $2
		ORDER BY timestamp_ms ASC, order_id ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		observe("trade_get_by_time_range", began, err)
		return nil, fmt.Errorf("query trade records by time range: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeRecords(rows)
	observe("trade_get_by_time_range", began, err)
	return records, err
}

func scanTradeRecord(row rowScanner) (*domain.TradeRecord, error) {
	var t domain.TradeRecord
	var action string

	err := row.Scan(
		&t.OrderID, &t.TokenAddress, &action, &t.Amount, &t.Price,
		&t.Reason, &t.TimestampMs, &t.Status,
	)
	if err != nil {
		return nil, err
	}

	t.Action = domain.TradeAction(action)
	return &t, nil
}

func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var result []*domain.TradeRecord
	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return result, nil
}
