package domain

// Position is the aggregated holding of a token address.
// One position per token address; created on first buy fill, deleted when
// the amount reaches zero. Amount is never negative.
type Position struct {
	TokenAddress string
	Amount       float64
	AvgPrice     float64 // volume-weighted average entry price
}
