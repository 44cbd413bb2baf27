package trader

import "errors"

// Typed failures returned to ExecuteTrade callers. External-source
// unavailability surfaces as market.ErrUnavailable instead.
var (
	// ErrInvalidAction is returned when the action is neither buy nor sell.
	ErrInvalidAction = errors.New("invalid action: must be buy or sell")

	// ErrInvalidAmount is returned when the amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount: must be greater than 0")

	// ErrInsufficientBalance is returned when a sell exceeds the held amount.
	ErrInsufficientBalance = errors.New("insufficient token balance")
)
