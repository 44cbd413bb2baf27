package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"memecoin-sniper/internal/domain"
)

// HTTPFeatureSource fetches token safety features from a JSON audit API.
// Endpoint contract: GET {base}/token?address={token} returns the feature
// fields below.
type HTTPFeatureSource struct {
	baseURL string
	client  *http.Client
}

// SourceOption configures HTTPFeatureSource.
type SourceOption func(*HTTPFeatureSource)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) SourceOption {
	return func(s *HTTPFeatureSource) {
		s.client = client
	}
}

// NewHTTPFeatureSource creates a feature source for the given API base URL.
func NewHTTPFeatureSource(baseURL string, opts ...SourceOption) *HTTPFeatureSource {
	s := &HTTPFeatureSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type featureResponse struct {
	IsVerified       bool    `json:"is_verified"`
	IsMintable       bool    `json:"is_mintable"`
	HasBlacklist     bool    `json:"has_blacklist"`
	OwnerRenounced   bool    `json:"owner_renounced"`
	OwnerBalancePct  float64 `json:"owner_balance_pct"`
	LiquidityLocked  bool    `json:"liquidity_locked"`
	LockDurationDays float64 `json:"lock_duration_days"`
}

// GetFeatures fetches raw safety features for a token. Every failure mode
// wraps ErrUnavailable so callers can degrade uniformly.
func (s *HTTPFeatureSource) GetFeatures(ctx context.Context, tokenAddress string) (*domain.SafetyFeatures, error) {
	endpoint := fmt.Sprintf("%s/token?address=%s", s.baseURL, url.QueryEscape(tokenAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build features request: %v", ErrUnavailable, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch features for %s: %v", ErrUnavailable, tokenAddress, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: audit API returned %d", ErrUnavailable, resp.StatusCode)
	}

	var body featureResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode features response: %v", ErrUnavailable, err)
	}

	return &domain.SafetyFeatures{
		TokenAddress:     tokenAddress,
		IsVerified:       body.IsVerified,
		IsMintable:       body.IsMintable,
		HasBlacklist:     body.HasBlacklist,
		OwnerRenounced:   body.OwnerRenounced,
		OwnerBalancePct:  body.OwnerBalancePct,
		LiquidityLocked:  body.LiquidityLocked,
		LockDurationDays: body.LockDurationDays,
	}, nil
}

var _ FeatureSource = (*HTTPFeatureSource)(nil)
