package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// MentionArchiveStore is an in-memory implementation of storage.MentionArchiveStore.
// Retention is handled by Prune, called by the owner on its housekeeping cycle.
type MentionArchiveStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MentionEvent // keyed by symbol
}

// NewMentionArchiveStore creates a new in-memory mention archive store.
func NewMentionArchiveStore() *MentionArchiveStore {
	return &MentionArchiveStore{
		data: make(map[string][]*domain.MentionEvent),
	}
}

// InsertBulk appends multiple mention events.
func (s *MentionArchiveStore) InsertBulk(_ context.Context, events []*domain.MentionEvent) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		if e == nil || e.Symbol == "" {
			return storage.ErrInvalidInput
		}
		eventCopy := *e
		s.data[e.Symbol] = append(s.data[e.Symbol], &eventCopy)
	}
	return nil
}

// GetBySymbol retrieves archived mentions for a symbol, ordered by timestamp ASC.
func (s *MentionArchiveStore) GetBySymbol(_ context.Context, symbol string) ([]*domain.MentionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.data[symbol]
	result := make([]*domain.MentionEvent, 0, len(events))
	for _, e := range events {
		eventCopy := *e
		result = append(result, &eventCopy)
	}

	sortMentions(result)
	return result, nil
}

// GetByTimeRange retrieves mentions for a symbol within [start, end] (inclusive).
func (s *MentionArchiveStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.MentionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MentionEvent
	for _, e := range s.data[symbol] {
		if e.TimestampMs >= start && e.TimestampMs <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortMentions(result)
	return result, nil
}

// Prune drops archived mentions older than cutoff (Unix milliseconds).
func (s *MentionArchiveStore) Prune(cutoff int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for symbol, events := range s.data {
		kept := events[:0]
		for _, e := range events {
			if e.TimestampMs >= cutoff {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.data, symbol)
			continue
		}
		s.data[symbol] = kept
	}
}

// sortMentions sorts by timestamp ASC.
func sortMentions(events []*domain.MentionEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].TimestampMs < events[j].TimestampMs
	})
}

// Verify interface compliance at compile time.
var _ storage.MentionArchiveStore = (*MentionArchiveStore)(nil)
