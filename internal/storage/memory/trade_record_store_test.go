package memory

import (
	"context"
	"errors"
	"testing"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		OrderID:      "order1",
		TokenAddress: "addr1",
		Action:       domain.ActionBuy,
		Amount:       100,
		Price:        1.5,
		TimestampMs:  1000,
		Status:       domain.TradeStatusCompleted,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "order1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Price != 1.5 {
		t.Errorf("Price mismatch: got %f, want 1.5", got.Price)
	}
	if got.Status != domain.TradeStatusCompleted {
		t.Errorf("Status mismatch: got %s", got.Status)
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		OrderID:      "order1",
		TokenAddress: "addr1",
		Action:       domain.ActionBuy,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_GetByToken_FillOrder(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	// Inserted out of order; reads must come back in fill order.
	trades := []*domain.TradeRecord{
		{OrderID: "o3", TokenAddress: "addr1", TimestampMs: 3000},
		{OrderID: "o1", TokenAddress: "addr1", TimestampMs: 1000},
		{OrderID: "o2", TokenAddress: "addr1", TimestampMs: 2000},
		{OrderID: "other", TokenAddress: "addr2", TimestampMs: 1500},
	}
	for _, tr := range trades {
		if err := store.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert %s failed: %v", tr.OrderID, err)
		}
	}

	got, err := store.GetByToken(ctx, "addr1")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(got))
	}
	for i, want := range []string{"o1", "o2", "o3"} {
		if got[i].OrderID != want {
			t.Errorf("Position %d: got %s, want %s", i, got[i].OrderID, want)
		}
	}
}

func TestMentionArchiveStore_InsertAndPrune(t *testing.T) {
	store := NewMentionArchiveStore()
	ctx := context.Background()

	events := []*domain.MentionEvent{
		{Symbol: "BONK", TimestampMs: 1000, Followers: 500},
		{Symbol: "BONK", TimestampMs: 2000, Followers: 900},
		{Symbol: "WIF", TimestampMs: 1500, Followers: 100},
	}
	if err := store.InsertBulk(ctx, events); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetBySymbol(ctx, "BONK")
	if err != nil {
		t.Fatalf("GetBySymbol failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}

	store.Prune(1500)

	got, _ = store.GetBySymbol(ctx, "BONK")
	if len(got) != 1 || got[0].TimestampMs != 2000 {
		t.Errorf("Prune kept wrong events: %v", got)
	}
	wif, _ := store.GetBySymbol(ctx, "WIF")
	if len(wif) != 1 {
		t.Errorf("Prune dropped event at cutoff boundary")
	}
}
