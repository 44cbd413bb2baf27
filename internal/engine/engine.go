// Package engine ties signal scoring, safety gating, and trade execution
// together into the decision pipeline.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/notify"
	"memecoin-sniper/internal/observability"
	"memecoin-sniper/internal/safety"
	"memecoin-sniper/internal/trader"
	"memecoin-sniper/internal/trend"
)

// Mode selects how far the pipeline goes on a positive decision.
type Mode string

const (
	// ModeMonitor evaluates and notifies but never trades.
	ModeMonitor Mode = "monitor"
	// ModeAuto executes a buy when a candidate clears the safety gate.
	ModeAuto Mode = "auto"
)

// IsValid checks if the mode is a valid value.
func (m Mode) IsValid() bool {
	return m == ModeMonitor || m == ModeAuto
}

// Options configures an Engine.
type Options struct {
	Trend    *trend.Scorer
	Safety   *safety.Scorer
	Trader   *trader.Trader
	Notifier notify.Notifier
	Mode     Mode
	// BuyAmount is the fixed position size for automatic entries.
	BuyAmount float64
	Logger    *log.Logger
}

// Engine evaluates trend and launch triggers, gates them on token safety,
// and decides whether to trade. Every trigger produces exactly one
// notification describing its outcome.
type Engine struct {
	trend     *trend.Scorer
	safety    *safety.Scorer
	trader    *trader.Trader
	notifier  notify.Notifier
	mode      Mode
	buyAmount float64
	logger    *log.Logger

	mu sync.Mutex
	// addressBySymbol maps mention symbols to the token address seen at
	// launch; trend triggers for symbols without a known address are
	// alerted but cannot be gated or traded.
	addressBySymbol map[string]string
	// strongNotified suppresses repeat strong-trend alerts while a symbol
	// stays above the threshold; it clears when the score falls back.
	strongNotified map[string]bool
}

// New creates an Engine.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	mode := opts.Mode
	if !mode.IsValid() {
		mode = ModeMonitor
	}

	return &Engine{
		trend:           opts.Trend,
		safety:          opts.Safety,
		trader:          opts.Trader,
		notifier:        opts.Notifier,
		mode:            mode,
		buyAmount:       opts.BuyAmount,
		logger:          logger,
		addressBySymbol: make(map[string]string),
		strongNotified:  make(map[string]bool),
	}
}

// EvaluateSymbol scores a symbol's recent mentions and runs the decision
// pipeline when the trend is strong. Safe to call on every recorded
// mention: a symbol that stays strong triggers once.
func (e *Engine) EvaluateSymbol(ctx context.Context, symbol string) {
	score := e.trend.Score(symbol)

	if !e.trend.IsStrong(score) {
		e.mu.Lock()
		delete(e.strongNotified, symbol)
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	if e.strongNotified[symbol] {
		e.mu.Unlock()
		return
	}
	e.strongNotified[symbol] = true
	address := e.addressBySymbol[symbol]
	e.mu.Unlock()

	e.logger.Printf("[engine] Strong trend for %s: score %.3f over %d mentions", symbol, score.Score, score.MentionCount)
	observability.DefaultMetrics.StrongTrendSignals.Inc()

	e.notify(ctx, &notify.Event{
		Kind:    notify.EventStrongTrend,
		Symbol:  symbol,
		Token:   address,
		Message: fmt.Sprintf("trend score %.3f (%d mentions)", score.Score, score.MentionCount),
	})

	if address == "" {
		e.logger.Printf("[engine] No token address known for %s, skipping safety gate", symbol)
		return
	}

	e.decide(ctx, symbol, address)
}

// HandleLaunch is the deduplicator callback: it records the symbol/address
// pair, alerts the launch, and runs the decision pipeline.
func (e *Engine) HandleLaunch(ctx context.Context, record *domain.LaunchRecord) {
	if record.Symbol != "" {
		e.mu.Lock()
		e.addressBySymbol[record.Symbol] = record.TokenAddress
		e.mu.Unlock()
	}

	e.logger.Printf("[engine] New launch %s (%s) from %s", record.Symbol, record.TokenAddress, record.Source)

	e.notify(ctx, &notify.Event{
		Kind:    notify.EventNewLaunch,
		Symbol:  record.Symbol,
		Token:   record.TokenAddress,
		Message: fmt.Sprintf("detected via %s", record.Source),
	})

	e.decide(ctx, record.Symbol, record.TokenAddress)
}

// decide runs the safety gate and, in auto mode, the entry. Exactly one
// outcome notification is emitted per call.
func (e *Engine) decide(ctx context.Context, symbol, address string) {
	report, err := e.safety.CheckAddress(ctx, address)
	if err != nil {
		e.logger.Printf("[engine] Safety check for %s failed: %v", address, err)
		e.notify(ctx, &notify.Event{
			Kind:    notify.EventError,
			Symbol:  symbol,
			Token:   address,
			Message: fmt.Sprintf("safety check failed: %v", err),
		})
		return
	}

	observability.RecordSafetyCheck(report.Status.String())

	if report.Status == domain.StatusHighRisk {
		e.logger.Printf("[engine] Skipping %s: %s (risk %.1f, warnings %v)", address, report.Status, report.Risk.Overall, report.Warnings)
		observability.DefaultMetrics.SafetySkips.Inc()
		e.notify(ctx, &notify.Event{
			Kind:    notify.EventSafetySkip,
			Symbol:  symbol,
			Token:   address,
			Message: fmt.Sprintf("risk %.1f (%s)", report.Risk.Overall, report.Status),
			Fields:  map[string]string{"warnings": fmt.Sprintf("%v", report.Warnings)},
		})
		return
	}

	if e.mode == ModeMonitor {
		e.notify(ctx, &notify.Event{
			Kind:    notify.EventWouldTrade,
			Symbol:  symbol,
			Token:   address,
			Message: fmt.Sprintf("would buy %.4f (risk %.1f, %s)", e.buyAmount, report.Risk.Overall, report.Status),
		})
		return
	}

	order, err := e.trader.ExecuteTrade(ctx, address, domain.ActionBuy, e.buyAmount, trader.TradeParams{})
	if err != nil {
		e.logger.Printf("[engine] Buy for %s failed: %v", address, err)
		e.notify(ctx, &notify.Event{
			Kind:    notify.EventError,
			Symbol:  symbol,
			Token:   address,
			Message: fmt.Sprintf("buy failed: %v", err),
		})
		return
	}

	observability.RecordOrderPlaced(order.Action.String(), order.PriorityFee)
	e.notify(ctx, &notify.Event{
		Kind:    notify.EventTradePlaced,
		Symbol:  symbol,
		Token:   address,
		Message: fmt.Sprintf("buy %.4f @ %.6f (order %s)", order.Amount, order.Price, order.OrderID[:8]),
	})
}

// HandleFill is the trader fill callback: it alerts settled entries and
// automatic exits.
func (e *Engine) HandleFill(ctx context.Context, record *domain.TradeRecord) {
	kind := notify.EventTradeFilled
	msg := fmt.Sprintf("%s %.4f @ %.6f", record.Action, record.Amount, record.Price)
	if record.Reason != "" {
		kind = notify.EventPositionExit
		msg = fmt.Sprintf("%s: sold %.4f @ %.6f", record.Reason, record.Amount, record.Price)
	}

	e.notify(ctx, &notify.Event{
		Kind:    kind,
		Token:   record.TokenAddress,
		Message: msg,
	})
}

func (e *Engine) notify(ctx context.Context, event *notify.Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		e.logger.Printf("[engine] Notification failed: %v", err)
	}
}
