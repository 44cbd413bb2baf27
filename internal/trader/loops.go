package trader

import (
	"context"
	"sync"
	"time"

	"memecoin-sniper/internal/domain"
)

// AdvancePending fills every pending order whose fill latency has elapsed,
// reconciling positions and appending trade records. Returns the number of
// orders filled. Orders whose record append fails stay pending for retry.
func (t *Trader) AdvancePending(ctx context.Context) int {
	cutoff := t.now().Add(-t.cfg.FillLatency).UnixMilli()

	t.mu.Lock()
	due := make([]*domain.Order, 0)
	for _, o := range t.pending {
		if o.CreatedAtMs <= cutoff {
			due = append(due, o)
		}
	}
	t.mu.Unlock()

	filled := 0
	for _, order := range due {
		if err := t.fill(ctx, order); err != nil {
			t.logger.Printf("[trader] Fill %s failed, will retry: %v", order.OrderID[:8], err)
			continue
		}
		filled++
	}
	return filled
}

// fill settles one pending order: records the trade first, then applies the
// position change and marks the order filled. The record append is the
// durability point; a failed append leaves the order pending.
func (t *Trader) fill(ctx context.Context, order *domain.Order) error {
	unlock := t.lockToken(order.TokenAddress)
	defer unlock()

	t.mu.Lock()
	current, ok := t.pending[order.OrderID]
	t.mu.Unlock()
	if !ok || current.Status != domain.OrderPending {
		return nil // settled by a concurrent pass
	}

	record := &domain.TradeRecord{
		OrderID:      order.OrderID,
		TokenAddress: order.TokenAddress,
		Action:       order.Action,
		Amount:       order.Amount,
		Price:        order.Price,
		Reason:       order.Reason,
		TimestampMs:  t.now().UnixMilli(),
		Status:       domain.TradeStatusCompleted,
	}
	if err := t.trades.Insert(ctx, record); err != nil {
		return err
	}

	t.mu.Lock()
	t.applyFill(current)
	current.Status = domain.OrderFilled
	delete(t.pending, current.OrderID)
	if current.Reason != "" {
		delete(t.exiting, current.TokenAddress)
	}
	t.syncGauges()
	t.mu.Unlock()

	t.logger.Printf("[trader] Filled %s: %s %f %s @ %f",
		order.OrderID[:8], order.Action, order.Amount, order.TokenAddress, order.Price)

	if t.onFill != nil {
		t.onFill(ctx, record)
	}
	return nil
}

// applyFill reconciles a filled order into the position book.
// Buys volume-weight the average entry price; sells reduce the amount and
// drop the position when it reaches exactly zero. Caller holds t.mu.
func (t *Trader) applyFill(order *domain.Order) {
	pos, ok := t.positions[order.TokenAddress]

	switch order.Action {
	case domain.ActionBuy:
		if !ok {
			t.positions[order.TokenAddress] = &domain.Position{
				TokenAddress: order.TokenAddress,
				Amount:       order.Amount,
				AvgPrice:     order.Price,
			}
			return
		}
		total := pos.Amount + order.Amount
		pos.AvgPrice = (pos.Amount*pos.AvgPrice + order.Amount*order.Price) / total
		pos.Amount = total

	case domain.ActionSell:
		if !ok {
			return
		}
		pos.Amount -= order.Amount
		if pos.Amount <= 0 {
			delete(t.positions, order.TokenAddress)
		}
	}
}

// MonitorPositions checks every open position against its exit thresholds
// and places a full-amount sell where one is crossed. A token with an
// in-flight exit order is skipped until that order settles. Returns the
// number of exit orders placed.
func (t *Trader) MonitorPositions(ctx context.Context) int {
	positions := t.Positions()

	exits := 0
	for _, pos := range positions {
		t.mu.Lock()
		inFlight := t.exiting[pos.TokenAddress]
		t.mu.Unlock()
		if inFlight {
			continue
		}

		quote, err := t.marketData.GetPrice(ctx, pos.TokenAddress)
		if err != nil {
			t.logger.Printf("[trader] Price check for %s failed: %v", pos.TokenAddress, err)
			continue
		}

		reason := ""
		switch {
		case quote.Price <= pos.AvgPrice*t.cfg.StopLossMult:
			reason = domain.ExitReasonStopLoss
		case quote.Price >= pos.AvgPrice*t.cfg.TakeProfitMult:
			reason = domain.ExitReasonTakeProfit
		default:
			continue
		}

		order, err := t.ExecuteTrade(ctx, pos.TokenAddress, domain.ActionSell, pos.Amount, TradeParams{Reason: reason})
		if err != nil {
			t.logger.Printf("[trader] Exit (%s) for %s failed: %v", reason, pos.TokenAddress, err)
			continue
		}

		t.mu.Lock()
		t.exiting[pos.TokenAddress] = true
		t.mu.Unlock()

		t.logger.Printf("[trader] Exit %s: selling %f %s @ %f (avg %f, reason %s)",
			order.OrderID[:8], pos.Amount, pos.TokenAddress, quote.Price, pos.AvgPrice, reason)
		exits++
	}
	return exits
}

// Run drives the fill and monitoring loops until the context is canceled,
// then drains: due pending orders are filled, the rest are marked failed.
func (t *Trader) Run(ctx context.Context) {
	t.logger.Printf("[trader] Starting (fill latency %s, stop-loss %.2fx, take-profit %.2fx)",
		t.cfg.FillLatency, t.cfg.StopLossMult, t.cfg.TakeProfitMult)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		t.loop(ctx, t.cfg.AdvanceInterval, func() bool {
			t.AdvancePending(ctx)
			return true
		})
	}()

	go func() {
		defer wg.Done()
		t.loop(ctx, t.cfg.MonitorInterval, func() bool {
			t.MonitorPositions(ctx)
			return true
		})
	}()

	wg.Wait()
	t.drain()
	t.logger.Printf("[trader] Stopped")
}

// loop runs fn on the given cadence until ctx is canceled. A false return
// from fn applies the error backoff before the next run.
func (t *Trader) loop(ctx context.Context, interval time.Duration, fn func() bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !fn() {
				select {
				case <-ctx.Done():
					return
				case <-time.After(t.cfg.ErrorBackoff):
				}
			}
		}
	}
}

// drain settles what it can on shutdown: due orders are filled, the rest
// are marked failed so no order is left pending across a restart.
func (t *Trader) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.AdvancePending(ctx)

	t.mu.Lock()
	for id, o := range t.pending {
		o.Status = domain.OrderFailed
		delete(t.pending, id)
		t.logger.Printf("[trader] Marked %s failed on shutdown", id[:8])
	}
	t.exiting = make(map[string]bool)
	t.syncGauges()
	t.mu.Unlock()
}
