// Package feeds drives the ingestion side of the pipeline: mention and
// launch sources are polled on independent loops, each with its own error
// backoff, so one stalled source never starves the others.
package feeds

import (
	"context"
	"log"
	"sync"
	"time"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/engine"
	"memecoin-sniper/internal/launch"
	"memecoin-sniper/internal/observability"
	"memecoin-sniper/internal/safety"
	"memecoin-sniper/internal/storage"
	"memecoin-sniper/internal/trend"
)

// MentionSource yields social mention events. Poll returns whatever
// accumulated since the previous call.
type MentionSource interface {
	Name() string
	Poll(ctx context.Context) ([]domain.MentionEvent, error)
}

// LaunchSource yields raw launch payloads for deduplication.
type LaunchSource interface {
	Name() string
	Poll(ctx context.Context) ([]map[string]any, error)
}

// Config holds the runner's cadences.
type Config struct {
	PollInterval  time.Duration // mention and launch source polling
	EvictInterval time.Duration // safety report cache sweep
	FlushInterval time.Duration // mention archive flush
	ErrorBackoff  time.Duration // extra sleep after a failed poll
}

// DefaultConfig returns the standard feed cadences.
func DefaultConfig() Config {
	return Config{
		PollInterval:  5 * time.Second,
		EvictInterval: 10 * time.Minute,
		FlushInterval: 30 * time.Second,
		ErrorBackoff:  15 * time.Second,
	}
}

// Options configures a Runner.
type Options struct {
	Mentions []MentionSource
	Launches []LaunchSource
	Ledger   *trend.Ledger
	Engine   *engine.Engine
	Deduper  *launch.Deduper
	Safety   *safety.Scorer
	// Archive receives every ingested mention in bulk; nil disables archival.
	Archive storage.MentionArchiveStore
	Config  Config
	Logger  *log.Logger
}

// Runner owns the ingestion goroutines.
type Runner struct {
	mentions []MentionSource
	launches []LaunchSource
	ledger   *trend.Ledger
	engine   *engine.Engine
	deduper  *launch.Deduper
	safety   *safety.Scorer
	archive  storage.MentionArchiveStore
	cfg      Config
	logger   *log.Logger

	bufMu  sync.Mutex
	buffer []*domain.MentionEvent // pending archive rows
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cfg := opts.Config
	if cfg.PollInterval == 0 {
		cfg = DefaultConfig()
	}

	return &Runner{
		mentions: opts.Mentions,
		launches: opts.Launches,
		ledger:   opts.Ledger,
		engine:   opts.Engine,
		deduper:  opts.Deduper,
		safety:   opts.Safety,
		archive:  opts.Archive,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run starts every ingestion loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, src := range r.mentions {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(ctx, src.Name(), func() error {
				return r.pollMentions(ctx, src)
			})
		}()
	}

	for _, src := range r.launches {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.loop(ctx, src.Name(), func() error {
				return r.pollLaunches(ctx, src)
			})
		}()
	}

	if r.safety != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.evictLoop(ctx)
		}()
	}

	if r.archive != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.flushLoop(ctx)
		}()
	}

	r.logger.Printf("[feeds] Running %d mention and %d launch sources", len(r.mentions), len(r.launches))
	wg.Wait()
}

// loop polls fn on the configured cadence; a failed poll adds the error
// backoff for this source only.
func (r *Runner) loop(ctx context.Context, name string, fn func() error) {
	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(); err != nil {
				r.logger.Printf("[feeds] Source %s failed, backing off: %v", name, err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(r.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// pollMentions drains one mention source into the ledger, re-scores each
// touched symbol, and queues the events for archival.
func (r *Runner) pollMentions(ctx context.Context, src MentionSource) error {
	events, err := src.Poll(ctx)
	if err != nil {
		return err
	}

	for i := range events {
		event := events[i]
		r.ledger.Record(event)
		observability.RecordMentionIngested(src.Name())
		observability.DefaultMetrics.LastMentionIngested.SetToCurrentTime()
		if r.engine != nil {
			r.engine.EvaluateSymbol(ctx, event.Symbol)
		}
		if r.archive != nil {
			r.bufMu.Lock()
			r.buffer = append(r.buffer, &event)
			r.bufMu.Unlock()
		}
	}
	return nil
}

// pollLaunches drains one launch source through the deduplicator.
func (r *Runner) pollLaunches(ctx context.Context, src LaunchSource) error {
	payloads, err := src.Poll(ctx)
	if err != nil {
		return err
	}

	for _, raw := range payloads {
		if err := r.deduper.Ingest(ctx, src.Name(), raw); err != nil {
			r.logger.Printf("[feeds] Ingest from %s failed: %v", src.Name(), err)
		}
	}
	return nil
}

// evictLoop sweeps expired safety reports.
func (r *Runner) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.EvictInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.safety.EvictExpired(); n > 0 {
				r.logger.Printf("[feeds] Evicted %d expired safety reports", n)
			}
		}
	}
}

// flushLoop bulk-writes buffered mentions to the archive. A failed flush
// keeps the batch for the next attempt.
func (r *Runner) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Flush(context.Background())
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Flush writes all buffered mentions to the archive store.
func (r *Runner) Flush(ctx context.Context) {
	r.bufMu.Lock()
	batch := r.buffer
	r.buffer = nil
	r.bufMu.Unlock()

	if len(batch) == 0 {
		return
	}

	if err := r.archive.InsertBulk(ctx, batch); err != nil {
		r.logger.Printf("[feeds] Archive flush of %d mentions failed, retrying next cycle: %v", len(batch), err)
		r.bufMu.Lock()
		r.buffer = append(batch, r.buffer...)
		r.bufMu.Unlock()
		return
	}
	observability.DefaultMetrics.MentionsArchived.Add(float64(len(batch)))
}
