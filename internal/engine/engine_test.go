package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/market"
	"memecoin-sniper/internal/notify"
	"memecoin-sniper/internal/safety"
	"memecoin-sniper/internal/storage/memory"
	"memecoin-sniper/internal/trader"
	"memecoin-sniper/internal/trend"
)

const testAddr = "So11111111111111111111111111111111111111112"

func fixedNow() time.Time {
	return time.Unix(1_700_000_000, 0)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []*notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event *notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) kinds() []notify.EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]notify.EventKind, 0, len(n.events))
	for _, e := range n.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

type staticFeatures struct {
	features *domain.SafetyFeatures
	err      error
}

func (s *staticFeatures) GetFeatures(_ context.Context, tokenAddress string) (*domain.SafetyFeatures, error) {
	if s.err != nil {
		return nil, s.err
	}
	f := *s.features
	f.TokenAddress = tokenAddress
	return &f, nil
}

func safeFeatures() *domain.SafetyFeatures {
	return &domain.SafetyFeatures{
		IsVerified:       true,
		OwnerRenounced:   true,
		LiquidityLocked:  true,
		LockDurationDays: 365,
	}
}

func riskyFeatures() *domain.SafetyFeatures {
	return &domain.SafetyFeatures{
		IsVerified:      false,
		IsMintable:      true,
		HasBlacklist:    true,
		OwnerRenounced:  false,
		OwnerBalancePct: 20,
		LiquidityLocked: false,
	}
}

type staticMarket struct{ price float64 }

func (m *staticMarket) GetPrice(_ context.Context, _ string) (*market.Quote, error) {
	return &market.Quote{Price: m.price}, nil
}

type engineFixture struct {
	engine   *Engine
	ledger   *trend.Ledger
	notifier *recordingNotifier
	trader   *trader.Trader
}

func newFixture(t *testing.T, mode Mode, source safety.FeatureSource) *engineFixture {
	t.Helper()

	ledger := trend.NewLedger(7 * 24 * time.Hour)
	notifier := &recordingNotifier{}
	logger := log.New(io.Discard, "", 0)

	cfg := trader.DefaultConfig()
	cfg.FillLatency = time.Second
	tr := trader.New(trader.Options{
		MarketData: &staticMarket{price: 1.0},
		Trades:     memory.NewTradeRecordStore(),
		Config:     cfg,
		Logger:     logger,
	})

	eng := New(Options{
		Trend:     trend.NewScorer(ledger, trend.DefaultScorerConfig()),
		Safety:    safety.NewScorer(source, safety.DefaultScorerConfig()),
		Trader:    tr,
		Notifier:  notifier,
		Mode:      mode,
		BuyAmount: 100,
		Logger:    logger,
	})

	return &engineFixture{engine: eng, ledger: ledger, notifier: notifier, trader: tr}
}

// recordStrongTrend loads enough recent mentions to push the symbol's
// score past the strong threshold. The ledger windows against wall-clock
// time, so mentions are stamped relative to now.
func (f *engineFixture) recordStrongTrend(symbol string) {
	now := time.Now().UnixMilli()
	for i := 0; i < 60; i++ {
		f.ledger.Record(domain.MentionEvent{
			Symbol:      symbol,
			TimestampMs: now - int64(i)*1000,
			Followers:   15000,
			Engagement:  1200,
			SourceID:    fmt.Sprintf("src-%d", i),
		})
	}
}

func launchRecord() *domain.LaunchRecord {
	return &domain.LaunchRecord{
		TokenAddress: testAddr,
		Symbol:       "PEPE",
		Name:         "Pepe",
		Source:       "pump_fun",
		DetectedAtMs: fixedNow().UnixMilli(),
	}
}

func TestLaunchTriggersAutoBuy(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: safeFeatures()})

	f.engine.HandleLaunch(context.Background(), launchRecord())

	kinds := f.notifier.kinds()
	want := []notify.EventKind{notify.EventNewLaunch, notify.EventTradePlaced}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	pending := f.trader.PendingOrders()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending buy, got %d", len(pending))
	}
	if pending[0].Action != domain.ActionBuy || pending[0].Amount != 100 {
		t.Errorf("expected buy of 100, got %s %f", pending[0].Action, pending[0].Amount)
	}
}

func TestLaunchBlockedBySafetyGate(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: riskyFeatures()})

	f.engine.HandleLaunch(context.Background(), launchRecord())

	kinds := f.notifier.kinds()
	want := []notify.EventKind{notify.EventNewLaunch, notify.EventSafetySkip}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	if len(f.trader.PendingOrders()) != 0 {
		t.Error("high-risk token must not be traded")
	}
}

func TestMonitorModeNeverTrades(t *testing.T) {
	f := newFixture(t, ModeMonitor, &staticFeatures{features: safeFeatures()})

	f.engine.HandleLaunch(context.Background(), launchRecord())

	if len(f.trader.PendingOrders()) != 0 {
		t.Error("monitor mode must not place orders")
	}

	kinds := f.notifier.kinds()
	if len(kinds) != 2 || kinds[1] != notify.EventWouldTrade {
		t.Errorf("monitor mode should report a would-trade outcome, got %v", kinds)
	}
}

func TestSafetyUnavailableNotifiesError(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{err: safety.ErrUnavailable})

	f.engine.HandleLaunch(context.Background(), launchRecord())

	kinds := f.notifier.kinds()
	want := []notify.EventKind{notify.EventNewLaunch, notify.EventError}
	if len(kinds) != len(want) || kinds[1] != notify.EventError {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	if len(f.trader.PendingOrders()) != 0 {
		t.Error("no trade may happen when the safety source is down")
	}
}

func TestStrongTrendAlertsOncePerEpisode(t *testing.T) {
	f := newFixture(t, ModeMonitor, &staticFeatures{features: safeFeatures()})
	ctx := context.Background()

	f.recordStrongTrend("WIF")

	f.engine.EvaluateSymbol(ctx, "WIF")
	f.engine.EvaluateSymbol(ctx, "WIF")
	f.engine.EvaluateSymbol(ctx, "WIF")

	strong := 0
	for _, kind := range f.notifier.kinds() {
		if kind == notify.EventStrongTrend {
			strong++
		}
	}
	if strong != 1 {
		t.Errorf("expected exactly 1 strong-trend alert while the score stays high, got %d", strong)
	}
}

func TestStrongTrendUsesLaunchAddress(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: safeFeatures()})
	ctx := context.Background()

	// The launch registers the symbol/address pair and buys once.
	f.engine.HandleLaunch(ctx, launchRecord())
	ordersAfterLaunch := len(f.trader.PendingOrders())

	f.recordStrongTrend("PEPE")
	f.engine.EvaluateSymbol(ctx, "PEPE")

	if got := len(f.trader.PendingOrders()); got != ordersAfterLaunch+1 {
		t.Errorf("strong trend on a known address should buy again, got %d orders", got)
	}
}

func TestStrongTrendWithoutAddressOnlyAlerts(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: safeFeatures()})
	ctx := context.Background()

	f.recordStrongTrend("MYSTERY")
	f.engine.EvaluateSymbol(ctx, "MYSTERY")

	kinds := f.notifier.kinds()
	if len(kinds) != 1 || kinds[0] != notify.EventStrongTrend {
		t.Fatalf("expected only a strong-trend alert, got %v", kinds)
	}
	if len(f.trader.PendingOrders()) != 0 {
		t.Error("no address known, no trade possible")
	}
}

func TestWeakTrendIsSilent(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: safeFeatures()})
	ctx := context.Background()

	f.ledger.Record(domain.MentionEvent{
		Symbol:      "QUIET",
		TimestampMs: fixedNow().UnixMilli(),
		Followers:   10,
		Engagement:  1,
		SourceID:    "src-0",
	})
	f.engine.EvaluateSymbol(ctx, "QUIET")

	if got := len(f.notifier.kinds()); got != 0 {
		t.Errorf("weak trend must not alert, got %d events", got)
	}
}

func TestHandleFillNotifiesExit(t *testing.T) {
	f := newFixture(t, ModeAuto, &staticFeatures{features: safeFeatures()})
	ctx := context.Background()

	f.engine.HandleFill(ctx, &domain.TradeRecord{
		OrderID:      "abcdef1234567890",
		TokenAddress: testAddr,
		Action:       domain.ActionSell,
		Amount:       100,
		Price:        0.79,
		Reason:       domain.ExitReasonStopLoss,
		TimestampMs:  fixedNow().UnixMilli(),
		Status:       domain.TradeStatusCompleted,
	})

	kinds := f.notifier.kinds()
	if len(kinds) != 1 || kinds[0] != notify.EventPositionExit {
		t.Fatalf("expected a position-exit event, got %v", kinds)
	}
}
