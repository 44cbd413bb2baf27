package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// DefaultRPCTimeout bounds a single JSON-RPC round trip.
const DefaultRPCTimeout = 30 * time.Second

// RPCLoadProbe implements LoadProbe against a Solana JSON-RPC endpoint
// using getRecentPerformanceSamples.
type RPCLoadProbe struct {
	endpoint  string
	client    *http.Client
	requestID atomic.Uint64
}

// ProbeOption configures RPCLoadProbe.
type ProbeOption func(*RPCLoadProbe)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ProbeOption {
	return func(p *RPCLoadProbe) {
		p.client = client
	}
}

// NewRPCLoadProbe creates a load probe for the given RPC endpoint.
func NewRPCLoadProbe(endpoint string, opts ...ProbeOption) *RPCLoadProbe {
	p := &RPCLoadProbe{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultRPCTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// performanceSample mirrors one entry of getRecentPerformanceSamples.
type performanceSample struct {
	NumTransactions  int64 `json:"numTransactions"`
	NumSlots         int64 `json:"numSlots"`
	SamplePeriodSecs int64 `json:"samplePeriodSecs"`
	Slot             int64 `json:"slot"`
}

// RecentTransactionCount returns the transaction count of the latest
// performance sample. RPC failures are reported as ErrUnavailable so the
// caller can fall back to the base priority fee.
func (p *RPCLoadProbe) RecentTransactionCount(ctx context.Context) (int64, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      p.requestID.Add(1),
		Method:  "getRecentPerformanceSamples",
		Params:  []any{1},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshal rpc request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build rpc request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: rpc status %d", ErrUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read rpc response: %v", ErrUnavailable, err)
	}

	var parsed struct {
		Result []performanceSample `json:"result"`
		Error  *rpcError           `json:"error"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("%w: decode rpc response: %v", ErrUnavailable, err)
	}
	if parsed.Error != nil {
		return 0, fmt.Errorf("%w: rpc error %d: %s", ErrUnavailable, parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Result) == 0 {
		return 0, fmt.Errorf("%w: no performance samples", ErrUnavailable)
	}

	return parsed.Result[0].NumTransactions, nil
}

// Verify interface compliance at compile time.
var _ LoadProbe = (*RPCLoadProbe)(nil)
