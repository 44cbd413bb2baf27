package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// LaunchStore implements storage.LaunchStore using PostgreSQL.
type LaunchStore struct {
	pool *Pool
}

// NewLaunchStore creates a new LaunchStore.
func NewLaunchStore(pool *Pool) *LaunchStore {
	return &LaunchStore{pool: pool}
}

// Compile-time interface check.
var _ storage.LaunchStore = (*LaunchStore)(nil)

// Insert adds a new launch record. Returns ErrDuplicateKey if token_address exists.
func (s *LaunchStore) Insert(ctx context.Context, r *domain.LaunchRecord) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	extras, err := marshalExtras(r.Extras)
	if err != nil {
		return fmt.Errorf("marshal extras: %w", err)
	}

	query := `
		INSERT INTO launch_records (
			token_address, symbol, name, source, detected_at_ms,
			initial_price, initial_liquidity, extras
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	start := time.Now()
	_, err = s.pool.Exec(ctx, query,
		r.TokenAddress, r.Symbol, r.Name, r.Source, r.DetectedAtMs,
		r.InitialPrice, r.InitialLiquidity, extras,
	)
	observe("launch_insert", start, err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch record: %w", err)
	}
	return nil
}

// GetByAddress retrieves a launch record by token address. Returns ErrNotFound if not exists.
func (s *LaunchStore) GetByAddress(ctx context.Context, tokenAddress string) (*domain.LaunchRecord, error) {
	query := `
		SELECT token_address, symbol, name, source, detected_at_ms,
		       initial_price, initial_liquidity, extras
		FROM launch_records
		WHERE token_address = $1
	`

	start := time.Now()
	row := s.pool.QueryRow(ctx, query, tokenAddress)

	r, err := scanLaunchRecord(row)
	observe("launch_get_by_address", start, err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get launch record by address: %w", err)
	}
	return r, nil
}

// GetBySource retrieves all launch records detected by a given feed.
func (s *LaunchStore) GetBySource(ctx context.Context, source string) ([]*domain.LaunchRecord, error) {
	query := `
		SELECT token_address, symbol, name, source, detected_at_ms,
		       initial_price, initial_liquidity, extras
		FROM launch_records
		WHERE source = $1
		ORDER BY detected_at_ms ASC
	`

	start := time.Now()
	rows, err := s.pool.Query(ctx, query, source)
	if err != nil {
		observe("launch_get_by_source", start, err)
		return nil, fmt.Errorf("query launch records by source: %w", err)
	}
	defer rows.Close()

	records, err := scanLaunchRecords(rows)
	observe("launch_get_by_source", start, err)
	return records, err
}

// GetByTimeRange retrieves launch records detected within [start, end] (inclusive).
func (s *LaunchStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.LaunchRecord, error) {
	query := `
		SELECT token_address, symbol, name, source, detected_at_ms,
		       initial_price, initial_liquidity, extras
		FROM launch_records
		WHERE detected_at_ms >= $1 AND detected_at_ms <= $2
		ORDER BY detected_at_ms ASC
	`

	began := time.Now()
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		observe("launch_get_by_time_range", began, err)
		return nil, fmt.Errorf("query launch records by time range: %w", err)
	}
	defer rows.Close()

	records, err := scanLaunchRecords(rows)
	observe("launch_get_by_time_range", began, err)
	return records, err
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLaunchRecord(row rowScanner) (*domain.LaunchRecord, error) {
	var r domain.LaunchRecord
	var extras []byte

	err := row.Scan(
		&r.TokenAddress, &r.Symbol, &r.Name, &r.Source, &r.DetectedAtMs,
		&r.InitialPrice, &r.InitialLiquidity, &extras,
	)
	if err != nil {
		return nil, err
	}

	if len(extras) > 0 {
		if err := json.Unmarshal(extras, &r.Extras); err != nil {
			return nil, fmt.Errorf("unmarshal extras: %w", err)
		}
	}
	return &r, nil
}

func scanLaunchRecords(rows pgx.Rows) ([]*domain.LaunchRecord, error) {
	var result []*domain.LaunchRecord
	for rows.Next() {
		r, err := scanLaunchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch records: %w", err)
	}
	return result, nil
}

func marshalExtras(extras map[string]any) ([]byte, error) {
	if extras == nil {
		return nil, nil // NULL in the extras column
	}
	return json.Marshal(extras)
}
