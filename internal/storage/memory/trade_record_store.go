package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
type TradeRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by order_id
}

// NewTradeRecordStore creates a new in-memory trade record store.
func NewTradeRecordStore() *TradeRecordStore {
	return &TradeRecordStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// Insert adds a new trade. Returns ErrDuplicateKey if order_id exists.
func (s *TradeRecordStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.OrderID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.OrderID]; exists {
		return storage.ErrDuplicateKey
	}

	recordCopy := *t
	s.data[t.OrderID] = &recordCopy
	return nil
}

// GetByID retrieves a trade by its order ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(_ context.Context, orderID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[orderID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *t
	return &recordCopy, nil
}

// GetByToken retrieves all trades for a token address, ordered by timestamp ASC.
func (s *TradeRecordStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.TokenAddress == tokenAddress {
			recordCopy := *t
			result = append(result, &recordCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// GetByTimeRange retrieves trades within [start, end] (inclusive), ordered by timestamp ASC.
func (s *TradeRecordStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, t := range s.data {
		if t.TimestampMs >= start && t.TimestampMs <= end {
			recordCopy := *t
			result = append(result, &recordCopy)
		}
	}

	sortTrades(result)
	return result, nil
}

// sortTrades sorts by timestamp ASC, order_id as tiebreak for determinism.
func sortTrades(trades []*domain.TradeRecord) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].TimestampMs != trades[j].TimestampMs {
			return trades[i].TimestampMs < trades[j].TimestampMs
		}
		return trades[i].OrderID < trades[j].OrderID
	})
}

// Verify interface compliance at compile time.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
