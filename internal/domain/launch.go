package domain

// LaunchRecord represents the first-observed market debut of a token address.
// Created exactly once per token address for the lifetime of the process:
// the first reporting source wins.
// Corresponds to launch_records table in PostgreSQL.
type LaunchRecord struct {
	TokenAddress     string // PRIMARY KEY
	Symbol           string
	Name             string
	Source           string // feed identifier ("gmgn", "pumpfun", ...)
	DetectedAtMs     int64  // Unix timestamp in milliseconds
	InitialPrice     float64
	InitialLiquidity float64

	// Extras carries source-specific optional fields verbatim
	// (market_cap, holders, pair_address, ...). Never interpreted by the core.
	Extras map[string]any
}
