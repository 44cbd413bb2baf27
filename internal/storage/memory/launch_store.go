package memory

import (
	"context"
	"sort"
	"sync"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

// LaunchStore is an in-memory implementation of storage.LaunchStore.
type LaunchStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LaunchRecord // keyed by token_address
}

// NewLaunchStore creates a new in-memory launch store.
func NewLaunchStore() *LaunchStore {
	return &LaunchStore{
		data: make(map[string]*domain.LaunchRecord),
	}
}

// Insert adds a new launch record. Returns ErrDuplicateKey if token_address exists.
func (s *LaunchStore) Insert(_ context.Context, r *domain.LaunchRecord) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.TokenAddress]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[r.TokenAddress] = copyLaunch(r)
	return nil
}

// GetByAddress retrieves a launch record by token address. Returns ErrNotFound if not exists.
func (s *LaunchStore) GetByAddress(_ context.Context, tokenAddress string) (*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyLaunch(r), nil
}

// GetBySource retrieves all launch records detected by a given feed.
func (s *LaunchStore) GetBySource(_ context.Context, source string) ([]*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchRecord
	for _, r := range s.data {
		if r.Source == source {
			result = append(result, copyLaunch(r))
		}
	}

	sortLaunches(result)
	return result, nil
}

// GetByTimeRange retrieves launch records detected within [start, end] (inclusive).
func (s *LaunchStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchRecord
	for _, r := range s.data {
		if r.DetectedAtMs >= start && r.DetectedAtMs <= end {
			result = append(result, copyLaunch(r))
		}
	}

	sortLaunches(result)
	return result, nil
}

// copyLaunch deep-copies a record to prevent external mutation of stored state.
func copyLaunch(r *domain.LaunchRecord) *domain.LaunchRecord {
	launchCopy := *r
	if r.Extras != nil {
		launchCopy.Extras = make(map[string]any, len(r.Extras))
		for k, v := range r.Extras {
			launchCopy.Extras[k] = v
		}
	}
	return &launchCopy
}

// sortLaunches sorts by detected_at ASC.
func sortLaunches(records []*domain.LaunchRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].DetectedAtMs < records[j].DetectedAtMs
	})
}

// Verify interface compliance at compile time.
var _ storage.LaunchStore = (*LaunchStore)(nil)
