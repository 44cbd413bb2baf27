package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/storage"
	"memecoin-sniper/internal/storage/postgres"
)

func createTestTrade(orderID, tokenAddress string, action domain.TradeAction, ts int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		OrderID:      orderID,
		TokenAddress: tokenAddress,
		Action:       action,
		Amount:       100,
		Price:        0.0025,
		Reason:       "",
		TimestampMs:  ts,
		Status:       domain.TradeStatusCompleted,
	}
}

func TestTradeRecordStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	trade := createTestTrade("order-001", "token-a", domain.ActionBuy, 1700000000000)
	require.NoError(t, store.Insert(ctx, trade))

	retrieved, err := store.GetByID(ctx, "order-001")
	require.NoError(t, err)

	assert.Equal(t, trade.OrderID, retrieved.OrderID)
	assert.Equal(t, trade.TokenAddress, retrieved.TokenAddress)
	assert.Equal(t, trade.Action, retrieved.Action)
	assert.InDelta(t, trade.Amount, retrieved.Amount, 1e-9)
	assert.InDelta(t, trade.Price, retrieved.Price, 1e-9)
	assert.Equal(t, trade.TimestampMs, retrieved.TimestampMs)
	assert.Equal(t, trade.Status, retrieved.Status)
}

func TestTradeRecordStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	trade := createTestTrade("order-dup", "token-a", domain.ActionBuy, 1700000000000)
	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, trade)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestTradeRecordStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewTradeRecordStore(pool)

	_, err := store.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestTradeRecordStore_GetByToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("order-b1", "token-b", domain.ActionBuy, 1700000002000)))
	require.NoError(t, store.Insert(ctx, createTestTrade("order-b2", "token-b", domain.ActionBuy, 1700000001000)))
	exit := createTestTrade("order-b3", "token-b", domain.ActionSell, 1700000003000)
	exit.Reason = domain.ExitReasonStopLoss
	require.NoError(t, store.Insert(ctx, exit))
	require.NoError(t, store.Insert(ctx, createTestTrade("order-c1", "token-c", domain.ActionBuy, 1700000001500)))

	trades, err := store.GetByToken(ctx, "token-b")
	require.NoError(t, err)
	require.Len(t, trades, 3)

	// Ordered by timestamp ascending.
	assert.Equal(t, "order-b2", trades[0].OrderID)
	assert.Equal(t, "order-b1", trades[1].OrderID)
	assert.Equal(t, "order-b3", trades[2].OrderID)
	assert.Equal(t, domain.ExitReasonStopLoss, trades[2].Reason)
}

func TestTradeRecordStore_GetByTimeRange(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTradeRecordStore(pool)

	require.NoError(t, store.Insert(ctx, createTestTrade("order-r1", "token-a", domain.ActionBuy, 1700000001000)))
	require.NoError(t, store.Insert(ctx, createTestTrade("order-r2", "token-a", domain.ActionBuy, 1700000002000)))
	require.NoError(t, store.Insert(ctx, createTestTrade("order-r3", "token-a", domain.ActionBuy, 1700000003000)))

	trades, err := store.GetByTimeRange(ctx, 1700000001500, 1700000002500)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "order-r2", trades[0].OrderID)
}
