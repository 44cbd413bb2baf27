package domain

// MentionEvent represents a single social mention of a token symbol.
// Immutable once recorded by the mention ledger.
type MentionEvent struct {
	Symbol      string // token ticker, without $ prefix
	TimestampMs int64  // Unix timestamp in milliseconds
	Followers   int64  // author follower count
	Engagement  int64  // likes + retweets
	SourceID    string // originating post identifier
}

// TrendScore is a derived trend-strength snapshot for a symbol.
// Recomputed on demand, never persisted.
type TrendScore struct {
	Symbol       string
	Score        float64 // normalized to [0,1]
	MentionCount int     // mentions within the scoring window
	ComputedAtMs int64   // Unix timestamp in milliseconds
}
