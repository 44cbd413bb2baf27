package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPPriceSource fetches token quotes from a JSON price API.
// Endpoint contract: GET {base}/price?address={token} returns
// {"price": ..., "liquidity": ..., "volume_24h": ...}.
type HTTPPriceSource struct {
	baseURL string
	client  *http.Client
}

// SourceOption configures HTTPPriceSource.
type SourceOption func(*HTTPPriceSource)

// WithSourceHTTPClient sets a custom http.Client.
func WithSourceHTTPClient(client *http.Client) SourceOption {
	return func(s *HTTPPriceSource) {
		s.client = client
	}
}

// NewHTTPPriceSource creates a price source for the given API base URL.
func NewHTTPPriceSource(baseURL string, opts ...SourceOption) *HTTPPriceSource {
	s := &HTTPPriceSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type priceResponse struct {
	Price     float64 `json:"price"`
	Liquidity float64 `json:"liquidity"`
	Volume24h float64 `json:"volume_24h"`
}

// GetPrice fetches the current quote for a token. Every failure mode wraps
// ErrUnavailable so callers can degrade uniformly.
func (s *HTTPPriceSource) GetPrice(ctx context.Context, tokenAddress string) (*Quote, error) {
	endpoint := fmt.Sprintf("%s/price?address=%s", s.baseURL, url.QueryEscape(tokenAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build price request: %v", ErrUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch price for %s: %v", ErrUnavailable, tokenAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: price API returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode price response: %v", ErrUnavailable, err)
	}

	if body.Price <= 0 {
		return nil, fmt.Errorf("%w: no price for %s", ErrUnavailable, tokenAddress)
	}

	return &Quote{
		Price:     body.Price,
		Liquidity: body.Liquidity,
		Volume24h: body.Volume24h,
	}, nil
}

var _ DataSource = (*HTTPPriceSource)(nil)
