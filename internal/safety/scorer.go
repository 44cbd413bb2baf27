package safety

import (
	"context"
	"fmt"
	"sync"
	"time"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/observability"
)

// ScorerConfig holds the tunable weights, thresholds, and cache TTL.
type ScorerConfig struct {
	// Composite weights over the three component risks. Should sum to 1.
	ContractWeight  float64
	OwnershipWeight float64
	LiquidityWeight float64

	// Status thresholds on overall risk: < SafeBelow is safe,
	// < MediumBelow is medium_risk, anything else is high_risk.
	SafeBelow   float64
	MediumBelow float64

	// CacheTTL bounds how long a report is served without recomputation.
	CacheTTL time.Duration
}

// DefaultScorerConfig returns the standard risk-scoring configuration.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		ContractWeight:  0.4,
		OwnershipWeight: 0.3,
		LiquidityWeight: 0.3,
		SafeBelow:       20,
		MediumBelow:     50,
		CacheTTL:        time.Hour,
	}
}

// Scorer computes safety reports with a TTL-bounded per-address cache.
// A live cached report is returned unchanged; expiry is checked lazily on
// read, with EvictExpired available as memory-bound housekeeping.
type Scorer struct {
	cfg    ScorerConfig
	source FeatureSource // optional, used by CheckAddress

	mu    sync.RWMutex
	cache map[string]*domain.SafetyReport // keyed by token_address

	now func() time.Time // overridable in tests
}

// NewScorer creates a scorer. source may be nil when callers always supply
// features directly through Check.
func NewScorer(source FeatureSource, cfg ScorerConfig) *Scorer {
	return &Scorer{
		cfg:    cfg,
		source: source,
		cache:  make(map[string]*domain.SafetyReport),
		now:    time.Now,
	}
}

// Check returns the safety report for a token. A live cached report is
// returned bit-identical with no recomputation; otherwise the features are
// scored and the fresh report replaces any expired entry.
func (s *Scorer) Check(tokenAddress string, features domain.SafetyFeatures) *domain.SafetyReport {
	if report, ok := s.cached(tokenAddress); ok {
		return report
	}

	report := s.score(tokenAddress, features)

	s.mu.Lock()
	s.cache[tokenAddress] = report
	s.mu.Unlock()

	reportCopy := copyReport(report)
	return reportCopy
}

// CheckAddress fetches features from the configured source and scores them.
// Returns ErrUnavailable (wrapped) when the source cannot supply features.
// The cache is consulted first, so a live report costs no external call.
func (s *Scorer) CheckAddress(ctx context.Context, tokenAddress string) (*domain.SafetyReport, error) {
	if report, ok := s.cached(tokenAddress); ok {
		return report, nil
	}

	if s.source == nil {
		return nil, fmt.Errorf("check %s: %w", tokenAddress, ErrUnavailable)
	}

	features, err := s.source.GetFeatures(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch features for %s: %w", tokenAddress, err)
	}

	return s.Check(tokenAddress, *features), nil
}

// EvictExpired removes all cache entries older than the TTL.
// Pure housekeeping; never affects correctness of Check.
func (s *Scorer) EvictExpired() int {
	cutoff := s.now().Add(-s.cfg.CacheTTL).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for addr, report := range s.cache {
		if report.ComputedAtMs < cutoff {
			delete(s.cache, addr)
			evicted++
		}
	}
	return evicted
}

// cached returns a live report copy, expiring lazily on read.
func (s *Scorer) cached(tokenAddress string) (*domain.SafetyReport, bool) {
	s.mu.RLock()
	report, exists := s.cache[tokenAddress]
	s.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if report.ComputedAtMs < s.now().Add(-s.cfg.CacheTTL).UnixMilli() {
		return nil, false
	}
	observability.DefaultMetrics.SafetyCacheHits.Inc()
	return copyReport(report), true
}

// score computes the full report. Component scores are each capped at 100;
// the weighted overall score is clamped to [0,100] as well since ownership
// risk can saturate before capping.
func (s *Scorer) score(tokenAddress string, f domain.SafetyFeatures) *domain.SafetyReport {
	var contract float64
	if !f.IsVerified {
		contract += 40
	}
	if f.IsMintable {
		contract += 30
	}
	if f.HasBlacklist {
		contract += 20
	}

	var ownership float64
	if !f.OwnerRenounced {
		ownership += 30
	}
	if f.OwnerBalancePct > 5 {
		ownership += f.OwnerBalancePct * 2
	}
	ownership = capAt100(ownership)

	var liquidity float64
	if !f.LiquidityLocked {
		liquidity += 50
	} else if f.LockDurationDays < 180 {
		liquidity += (180 - f.LockDurationDays) / 3
	}
	liquidity = capAt100(liquidity)

	overall := s.cfg.ContractWeight*contract +
		s.cfg.OwnershipWeight*ownership +
		s.cfg.LiquidityWeight*liquidity
	overall = clamp(overall, 0, 100)

	// Warnings in fixed check order so cached reports stay bit-identical.
	var warnings []string
	if !f.IsVerified {
		warnings = append(warnings, domain.WarningUnverifiedContract)
	}
	if f.IsMintable {
		warnings = append(warnings, domain.WarningMintableToken)
	}
	if !f.LiquidityLocked {
		warnings = append(warnings, domain.WarningUnlockedLiquidity)
	}
	if f.OwnerBalancePct > 10 {
		warnings = append(warnings, domain.WarningHighOwnerBalance)
	}

	return &domain.SafetyReport{
		TokenAddress: tokenAddress,
		Risk: domain.RiskScores{
			Contract:  contract,
			Ownership: ownership,
			Liquidity: liquidity,
			Overall:   overall,
		},
		Status:       s.status(overall),
		Warnings:     warnings,
		ComputedAtMs: s.now().UnixMilli(),
	}
}

// status maps overall risk to a safety status against the fixed thresholds.
func (s *Scorer) status(overall float64) domain.SafetyStatus {
	switch {
	case overall < s.cfg.SafeBelow:
		return domain.StatusSafe
	case overall < s.cfg.MediumBelow:
		return domain.StatusMediumRisk
	default:
		return domain.StatusHighRisk
	}
}

func copyReport(r *domain.SafetyReport) *domain.SafetyReport {
	reportCopy := *r
	if r.Warnings != nil {
		reportCopy.Warnings = append([]string(nil), r.Warnings...)
	}
	return &reportCopy
}

func capAt100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
