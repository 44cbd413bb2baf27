package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecentTransactionCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[{"numTransactions":1286,"numSlots":126,"samplePeriodSecs":60,"slot":348125}]}`))
	}))
	defer server.Close()

	probe := NewRPCLoadProbe(server.URL)

	got, err := probe.RecentTransactionCount(context.Background())
	if err != nil {
		t.Fatalf("RecentTransactionCount failed: %v", err)
	}
	if got != 1286 {
		t.Errorf("Expected 1286 transactions, got %d", got)
	}
}

func TestRecentTransactionCount_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
	}))
	defer server.Close()

	probe := NewRPCLoadProbe(server.URL)

	_, err := probe.RecentTransactionCount(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestRecentTransactionCount_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32005,"message":"node is behind"}}`))
	}))
	defer server.Close()

	probe := NewRPCLoadProbe(server.URL)

	_, err := probe.RecentTransactionCount(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestRecentTransactionCount_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	probe := NewRPCLoadProbe(server.URL)

	_, err := probe.RecentTransactionCount(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}
