package domain

// TradeAction is the direction of an order.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// String returns the string representation of TradeAction.
func (a TradeAction) String() string {
	return string(a)
}

// IsValid checks if the action is a valid value.
func (a TradeAction) IsValid() bool {
	return a == ActionBuy || a == ActionSell
}

// OrderStatus is the lifecycle state of an order.
// Transitions are monotonic: pending -> filled or pending -> failed.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderFilled  OrderStatus = "filled"
	OrderFailed  OrderStatus = "failed"
)

// String returns the string representation of OrderStatus.
func (s OrderStatus) String() string {
	return string(s)
}

// Exit reason codes attached to automatic sells.
const (
	ExitReasonStopLoss   = "stop_loss"
	ExitReasonTakeProfit = "take_profit"
)

// Order is a pending or settled trade instruction.
// Exclusively owned by the trader; transitions only through its lifecycle loop.
type Order struct {
	OrderID      string // deterministic hash
	TokenAddress string
	Action       TradeAction
	Amount       float64
	Price        float64 // market price captured at placement
	Slippage     float64 // percent
	PriorityFee  uint64  // lamports
	Status       OrderStatus
	Reason       string // exit reason code for automatic sells, empty otherwise
	CreatedAtMs  int64  // Unix timestamp in milliseconds
}
