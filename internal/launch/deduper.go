// Package launch merges token launch events from multiple feeds and emits
// each first-seen launch exactly once.
package launch

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/mr-tron/base58"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/observability"
	"memecoin-sniper/internal/storage"
)

// Callback is invoked exactly once per newly detected launch.
type Callback func(ctx context.Context, record *domain.LaunchRecord)

// Raw payload field names recognized during normalization. Everything else
// is carried verbatim on LaunchRecord.Extras.
const (
	fieldTokenAddress     = "token_address"
	fieldSymbol           = "symbol"
	fieldName             = "name"
	fieldInitialPrice     = "initial_price"
	fieldInitialLiquidity = "initial_liquidity"
)

// Deduper tracks launches by token address with first-source-wins semantics.
// Ingest is safe for concurrent use by multiple feed loops; at most one
// stored record and one callback invocation exist per address.
type Deduper struct {
	store    storage.LaunchStore
	callback Callback
	logger   *log.Logger

	mu   sync.Mutex
	seen map[string]bool // token addresses already ingested

	now func() time.Time // overridable in tests
}

// NewDeduper creates a deduplicator over the given store. callback may be nil.
func NewDeduper(store storage.LaunchStore, callback Callback, logger *log.Logger) *Deduper {
	if logger == nil {
		logger = log.Default()
	}
	return &Deduper{
		store:    store,
		callback: callback,
		logger:   logger,
		seen:     make(map[string]bool),
		now:      time.Now,
	}
}

// Ingest normalizes a raw feed payload and records it if the token address
// is new. Malformed payloads (missing or invalid token_address) are dropped
// silently. Repeat addresses are a no-op: the stored record keeps the first
// source and the callback does not fire again.
func (d *Deduper) Ingest(ctx context.Context, source string, raw map[string]any) error {
	addr, ok := raw[fieldTokenAddress].(string)
	if !ok || !validAddress(addr) {
		// Malformed external data is tolerated, not fatal.
		observability.DefaultMetrics.LaunchesDropped.Inc()
		return nil
	}

	record := normalize(addr, source, raw, d.now().UnixMilli())

	d.mu.Lock()
	if d.seen[addr] {
		d.mu.Unlock()
		observability.DefaultMetrics.LaunchesDuplicate.Inc()
		return nil
	}

	if err := d.store.Insert(ctx, record); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Already stored by an earlier run; swallow and mark seen.
			d.seen[addr] = true
			d.mu.Unlock()
			observability.DefaultMetrics.LaunchesDuplicate.Inc()
			return nil
		}
		d.mu.Unlock()
		return err
	}

	d.seen[addr] = true
	d.mu.Unlock()

	d.logger.Printf("[launch] New launch %s (%s) from %s", record.Symbol, addr, source)

	if d.callback != nil {
		d.callback(ctx, record)
	}
	return nil
}

// Tracked reports whether a token address has already been ingested.
func (d *Deduper) Tracked(tokenAddress string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[tokenAddress]
}

// normalize builds a LaunchRecord from a raw payload, attaching unrecognized
// fields verbatim as extras.
func normalize(addr, source string, raw map[string]any, detectedAt int64) *domain.LaunchRecord {
	record := &domain.LaunchRecord{
		TokenAddress: addr,
		Source:       source,
		DetectedAtMs: detectedAt,
	}

	if v, ok := raw[fieldSymbol].(string); ok {
		record.Symbol = v
	}
	if v, ok := raw[fieldName].(string); ok {
		record.Name = v
	}
	if v, ok := toFloat(raw[fieldInitialPrice]); ok {
		record.InitialPrice = v
	}
	if v, ok := toFloat(raw[fieldInitialLiquidity]); ok {
		record.InitialLiquidity = v
	}

	for k, v := range raw {
		switch k {
		case fieldTokenAddress, fieldSymbol, fieldName, fieldInitialPrice, fieldInitialLiquidity:
			continue
		}
		if record.Extras == nil {
			record.Extras = make(map[string]any)
		}
		record.Extras[k] = v
	}

	return record
}

// validAddress checks that the address is a base58-encoded 32-byte key.
func validAddress(addr string) bool {
	if addr == "" {
		return false
	}
	decoded, err := base58.Decode(addr)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
