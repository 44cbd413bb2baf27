package domain

// TradeStatusCompleted is the terminal status of every trade record.
const TradeStatusCompleted = "completed"

// TradeRecord is one entry of the append-only trade audit trail.
// Written exactly once per fill, never mutated.
// Corresponds to trade_records table in PostgreSQL.
type TradeRecord struct {
	OrderID      string // PRIMARY KEY, matches the filled order
	TokenAddress string
	Action       TradeAction
	Amount       float64
	Price        float64 // fill price
	Reason       string  // exit reason code for automatic sells, empty otherwise
	TimestampMs  int64   // fill timestamp, Unix milliseconds
	Status       string  // always TradeStatusCompleted
}
