package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// MentionArchiveStore implements storage.MentionArchiveStore using ClickHouse.
// The mention_archive table carries a 7-day TTL, so retention is enforced by
// the engine rather than by application-side purging.
type MentionArchiveStore struct {
	conn *Conn
}

// NewMentionArchiveStore creates a new MentionArchiveStore.
func NewMentionArchiveStore(conn *Conn) *MentionArchiveStore {
	return &MentionArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MentionArchiveStore = (*MentionArchiveStore)(nil)

// InsertBulk appends multiple mention events.
func (s *MentionArchiveStore) InsertBulk(ctx context.Context, events []*domain.MentionEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO mention_archive (
			symbol, timestamp_ms, followers, engagement, source_id
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		if e == nil || e.Symbol == "" {
			return storage.ErrInvalidInput
		}
		err = batch.Append(
			e.Symbol, uint64(e.TimestampMs), e.Followers, e.Engagement, e.SourceID,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	err = batch.Send()
	observe("mention_insert_bulk", start, err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySymbol retrieves archived mentions for a symbol, ordered by timestamp ASC.
func (s *MentionArchiveStore) GetBySymbol(ctx context.Context, symbol string) ([]*domain.MentionEvent, error) {
	query := `
		SELECT symbol, timestamp_ms, followers, engagement, source_id
		FROM mention_archive
		WHERE symbol = ?
		ORDER BY timestamp_ms ASC
	`

	start := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		observe("mention_get_by_symbol", start, err)
		return nil, fmt.Errorf("query by symbol: %w", err)
	}
	defer rows.Close()

	events, err := scanMentions(rows)
	observe("mention_get_by_symbol", start, err)
	return events, err
}

// GetByTimeRange retrieves mentions for a symbol within [start, end] (inclusive).
func (s *MentionArchiveStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.MentionEvent, error) {
	query := `
		SELECT symbol, timestamp_ms, followers, engagement, source_id
		FROM mention_archive
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	began := time.Now()
	rows, err := s.conn.Query(ctx, query, symbol, uint64(start), uint64(end))
	if err != nil {
		observe("mention_get_by_time_range", began, err)
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	events, err := scanMentions(rows)
	observe("mention_get_by_time_range", began, err)
	return events, err
}

func scanMentions(rows driver.Rows) ([]*domain.MentionEvent, error) {
	var result []*domain.MentionEvent
	for rows.Next() {
		var e domain.MentionEvent
		var ts uint64

		err := rows.Scan(&e.Symbol, &ts, &e.Followers, &e.Engagement, &e.SourceID)
		if err != nil {
			return nil, fmt.Errorf("scan mention: %w", err)
		}

		e.TimestampMs = int64(ts)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mentions: %w", err)
	}
	return result, nil
}
