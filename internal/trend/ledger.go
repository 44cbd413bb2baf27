// Package trend tracks social mentions per symbol and scores trend strength.
package trend

import (
	"sort"
	"sync"
	"time"

	"memecoin-sniper/internal/domain"
)

// Ledger stores per-symbol mention events with a bounded retention window.
// Events older than the retention window are evicted on every write, so the
// ledger never needs a separate cleanup goroutine.
type Ledger struct {
	mu        sync.RWMutex
	mentions  map[string][]*domain.MentionEvent // keyed by symbol, timestamp ASC
	retention time.Duration

	now func() time.Time // overridable in tests
}

// NewLedger creates a ledger with the given retention window.
// Retention covers raw archival (7 days by default); the scorer reads a
// narrower window on top of it.
func NewLedger(retention time.Duration) *Ledger {
	return &Ledger{
		mentions:  make(map[string][]*domain.MentionEvent),
		retention: retention,
		now:       time.Now,
	}
}

// Record appends an event for its symbol and evicts entries older than the
// retention window, both relative to now at call time.
func (l *Ledger) Record(event domain.MentionEvent) {
	if event.Symbol == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.retention).UnixMilli()

	events := l.mentions[event.Symbol]

	// Events arrive roughly in time order; insert then restore ordering only
	// when the new event is out of order.
	inOrder := len(events) == 0 || events[len(events)-1].TimestampMs <= event.TimestampMs
	eventCopy := event
	events = append(events, &eventCopy)
	if !inOrder {
		sort.Slice(events, func(i, j int) bool {
			return events[i].TimestampMs < events[j].TimestampMs
		})
	}

	// Compact: drop everything before the retention cutoff.
	idx := sort.Search(len(events), func(i int) bool {
		return events[i].TimestampMs >= cutoff
	})
	if idx > 0 {
		events = append([]*domain.MentionEvent(nil), events[idx:]...)
	}

	if len(events) == 0 {
		delete(l.mentions, event.Symbol)
		return
	}
	l.mentions[event.Symbol] = events
}

// Window returns events for symbol within duration of now, timestamp ASC.
// Unknown symbols yield an empty slice. Returned events are copies.
func (l *Ledger) Window(symbol string, duration time.Duration) []domain.MentionEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := l.now().Add(-duration).UnixMilli()

	events := l.mentions[symbol]
	idx := sort.Search(len(events), func(i int) bool {
		return events[i].TimestampMs >= cutoff
	})

	result := make([]domain.MentionEvent, 0, len(events)-idx)
	for _, e := range events[idx:] {
		result = append(result, *e)
	}
	return result
}

// Symbols returns all symbols currently holding at least one retained event.
func (l *Ledger) Symbols() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	symbols := make([]string, 0, len(l.mentions))
	for s := range l.mentions {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
