package trend

import (
	"time"

	"memecoin-sniper/internal/domain"
)

// ScorerConfig holds the tunable weights, caps, and windows for trend scoring.
type ScorerConfig struct {
	// Window is the scoring lookback (default 24h). Must not exceed the
	// ledger's retention window.
	Window time.Duration

	// Normalization caps.
	MentionCap    float64 // mentions that saturate density (default 50)
	FollowerCap   float64 // avg followers that saturate influence (default 10000)
	EngagementCap float64 // avg likes+retweets that saturate engagement (default 1000)

	// Factor weights. Should sum to 1 for a score bounded by [0,1].
	DensityWeight    float64
	InfluenceWeight  float64
	EngagementWeight float64

	// StrongThreshold marks a score as a strong-trend signal (default 0.7).
	StrongThreshold float64
}

// DefaultScorerConfig returns the standard scoring configuration.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Window:           24 * time.Hour,
		MentionCap:       50,
		FollowerCap:      10000,
		EngagementCap:    1000,
		DensityWeight:    0.4,
		InfluenceWeight:  0.3,
		EngagementWeight: 0.3,
		StrongThreshold:  0.7,
	}
}

// Scorer computes normalized trend-strength scores from a mention ledger.
// Score is a pure function of ledger state at call time.
type Scorer struct {
	ledger *Ledger
	cfg    ScorerConfig

	now func() time.Time // overridable in tests
}

// NewScorer creates a scorer reading from the given ledger.
func NewScorer(ledger *Ledger, cfg ScorerConfig) *Scorer {
	return &Scorer{
		ledger: ledger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Score computes the trend score for a symbol over the configured window.
// An empty window yields a zero score.
func (s *Scorer) Score(symbol string) domain.TrendScore {
	events := s.ledger.Window(symbol, s.cfg.Window)

	score := domain.TrendScore{
		Symbol:       symbol,
		MentionCount: len(events),
		ComputedAtMs: s.now().UnixMilli(),
	}
	if len(events) == 0 {
		return score
	}

	var totalFollowers, totalEngagement int64
	for _, e := range events {
		totalFollowers += e.Followers
		totalEngagement += e.Engagement
	}

	n := float64(len(events))
	density := capAtOne(n / s.cfg.MentionCap)
	influence := capAtOne(float64(totalFollowers) / n / s.cfg.FollowerCap)
	engagement := capAtOne(float64(totalEngagement) / n / s.cfg.EngagementCap)

	score.Score = s.cfg.DensityWeight*density +
		s.cfg.InfluenceWeight*influence +
		s.cfg.EngagementWeight*engagement
	return score
}

// IsStrong reports whether a score crosses the strong-trend threshold.
func (s *Scorer) IsStrong(score domain.TrendScore) bool {
	return score.Score > s.cfg.StrongThreshold
}

func capAtOne(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
