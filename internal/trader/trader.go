// Package trader owns the order/position lifecycle: order placement,
// fill reconciliation, and stop-loss/take-profit supervision.
package trader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/idhash"
	"memecoin-sniper/internal/market"
	"memecoin-sniper/internal/observability"
	"memecoin-sniper/internal/storage"
)

// Config holds the trader's tunables.
type Config struct {
	DefaultSlippage float64 // percent, applied when params carry none

	BasePriorityFee    uint64 // lamports
	HighLoadTxCount    int64  // samples above this double the base fee
	HighLoadMultiplier uint64

	FillLatency time.Duration // pending orders older than this are filled

	StopLossMult   float64 // exit when price <= avg * StopLossMult
	TakeProfitMult float64 // exit when price >= avg * TakeProfitMult

	AdvanceInterval time.Duration // pending-order advancement cadence
	MonitorInterval time.Duration // position monitoring cadence
	ErrorBackoff    time.Duration // extra sleep after a failed cycle
}

// DefaultConfig returns the standard trader configuration.
func DefaultConfig() Config {
	return Config{
		DefaultSlippage:    1.0,
		BasePriorityFee:    5000,
		HighLoadTxCount:    1000,
		HighLoadMultiplier: 2,
		FillLatency:        10 * time.Second,
		StopLossMult:       0.8,
		TakeProfitMult:     1.5,
		AdvanceInterval:    time.Second,
		MonitorInterval:    time.Second,
		ErrorBackoff:       10 * time.Second,
	}
}

// TradeParams carries optional per-trade parameters.
type TradeParams struct {
	Slippage    float64 // percent; 0 means use the configured default
	PriorityFee uint64  // lamports; 0 means size from network load
	Reason      string  // exit reason code for automatic sells
}

// FillCallback is invoked after a fill has been reconciled and recorded.
type FillCallback func(ctx context.Context, record *domain.TradeRecord)

// Options configures a Trader.
type Options struct {
	MarketData market.DataSource
	LoadProbe  market.LoadProbe // optional; base fee is used without it
	Trades     storage.TradeRecordStore
	Config     Config
	Logger     *log.Logger

	// OnFill fires once per reconciled fill (including automatic exits).
	OnFill FillCallback
}

// Trader is the order/position lifecycle manager. All state is process-local;
// per-token locks serialize fills and monitoring for the same address while
// leaving unrelated tokens concurrent.
type Trader struct {
	marketData market.DataSource
	probe      market.LoadProbe
	trades     storage.TradeRecordStore
	cfg        Config
	logger     *log.Logger
	onFill     FillCallback

	mu        sync.Mutex
	pending   map[string]*domain.Order    // keyed by order_id
	positions map[string]*domain.Position // keyed by token_address
	exiting   map[string]bool             // tokens with an in-flight automatic exit

	tokenMu   sync.Mutex
	tokenLock map[string]*sync.Mutex

	seq atomic.Uint64 // order id disambiguation within one millisecond

	now func() time.Time // overridable in tests
}

// New creates a Trader.
func New(opts Options) *Trader {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg := opts.Config
	if cfg.FillLatency == 0 {
		cfg = DefaultConfig()
	}

	return &Trader{
		marketData: opts.MarketData,
		probe:      opts.LoadProbe,
		trades:     opts.Trades,
		cfg:        cfg,
		logger:     logger,
		onFill:     opts.OnFill,
		pending:    make(map[string]*domain.Order),
		positions:  make(map[string]*domain.Position),
		exiting:    make(map[string]bool),
		tokenLock:  make(map[string]*sync.Mutex),
		now:        time.Now,
	}
}

// ExecuteTrade validates and places an order, returning it in pending state.
// Typed failures: ErrInvalidAction / ErrInvalidAmount for bad input,
// ErrInsufficientBalance for oversized sells, market.ErrUnavailable (wrapped)
// when no price can be fetched.
func (t *Trader) ExecuteTrade(ctx context.Context, tokenAddress string, action domain.TradeAction, amount float64, params TradeParams) (*domain.Order, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("execute trade %s: %w", tokenAddress, ErrInvalidAction)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("execute trade %s: %w", tokenAddress, ErrInvalidAmount)
	}

	unlock := t.lockToken(tokenAddress)
	defer unlock()

	if action == domain.ActionSell {
		if avail := t.availableAmount(tokenAddress); avail < amount {
			return nil, fmt.Errorf("sell %f of %s (available %f): %w", amount, tokenAddress, avail, ErrInsufficientBalance)
		}
	}

	slippage := params.Slippage
	if slippage <= 0 {
		slippage = t.cfg.DefaultSlippage
	}

	fee := params.PriorityFee
	if fee == 0 {
		fee = t.priorityFee(ctx)
	}

	quote, err := t.marketData.GetPrice(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("fetch price for %s: %w", tokenAddress, err)
	}

	createdAt := t.now().UnixMilli()
	order := &domain.Order{
		OrderID:      idhash.ComputeOrderID(tokenAddress, string(action), amount, createdAt, t.seq.Add(1)),
		TokenAddress: tokenAddress,
		Action:       action,
		Amount:       amount,
		Price:        quote.Price,
		Slippage:     slippage,
		PriorityFee:  fee,
		Status:       domain.OrderPending,
		Reason:       params.Reason,
		CreatedAtMs:  createdAt,
	}

	t.mu.Lock()
	t.pending[order.OrderID] = order
	t.syncGauges()
	t.mu.Unlock()

	t.logger.Printf("[trader] Order %s: %s %f %s @ %f (slippage %.2f%%, fee %d)",
		order.OrderID[:8], action, amount, tokenAddress, quote.Price, slippage, fee)

	orderCopy := *order
	return &orderCopy, nil
}

// priorityFee sizes the priority fee from recent network load.
// Probe failure falls back to the base fee; the next order retries.
func (t *Trader) priorityFee(ctx context.Context) uint64 {
	if t.probe == nil {
		return t.cfg.BasePriorityFee
	}

	txCount, err := t.probe.RecentTransactionCount(ctx)
	if err != nil {
		t.logger.Printf("[trader] Load probe failed, using base fee: %v", err)
		return t.cfg.BasePriorityFee
	}

	if txCount > t.cfg.HighLoadTxCount {
		return t.cfg.BasePriorityFee * t.cfg.HighLoadMultiplier
	}
	return t.cfg.BasePriorityFee
}

// availableAmount returns the position amount minus outstanding pending
// sells, so overlapping sells cannot jointly exceed the position.
// Caller must hold the token lock.
func (t *Trader) availableAmount(tokenAddress string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var held float64
	if p, ok := t.positions[tokenAddress]; ok {
		held = p.Amount
	}
	for _, o := range t.pending {
		if o.TokenAddress == tokenAddress && o.Action == domain.ActionSell {
			held -= o.Amount
		}
	}
	return held
}

// syncGauges refreshes the book-size gauges. Caller holds t.mu.
func (t *Trader) syncGauges() {
	observability.DefaultMetrics.PendingOrders.Set(float64(len(t.pending)))
	observability.DefaultMetrics.OpenPositions.Set(float64(len(t.positions)))
}

// lockToken acquires the per-token mutex, creating it on first use.
func (t *Trader) lockToken(tokenAddress string) func() {
	t.tokenMu.Lock()
	lock, ok := t.tokenLock[tokenAddress]
	if !ok {
		lock = &sync.Mutex{}
		t.tokenLock[tokenAddress] = lock
	}
	t.tokenMu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Position returns a copy of the position for a token, or nil when flat.
func (t *Trader) Position(tokenAddress string) *domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.positions[tokenAddress]
	if !ok {
		return nil
	}
	positionCopy := *p
	return &positionCopy
}

// Positions returns copies of all open positions.
func (t *Trader) Positions() []*domain.Position {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]*domain.Position, 0, len(t.positions))
	for _, p := range t.positions {
		positionCopy := *p
		result = append(result, &positionCopy)
	}
	return result
}

// PendingOrders returns copies of all orders still pending.
func (t *Trader) PendingOrders() []*domain.Order {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]*domain.Order, 0, len(t.pending))
	for _, o := range t.pending {
		orderCopy := *o
		result = append(result, &orderCopy)
	}
	return result
}
