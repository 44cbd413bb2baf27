package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPLaunchSource polls a JSON launch listing API with a timestamp cursor.
// Endpoint contract: GET {base}/launches?since={ms} returns an array of raw
// launch objects; payload fields pass through to the deduplicator untouched
// so source-specific extras survive.
type HTTPLaunchSource struct {
	name    string
	baseURL string
	client  *http.Client
	since   int64
}

// NewHTTPLaunchSource creates a launch source for the given API base URL.
// The name tags launches from this feed.
func NewHTTPLaunchSource(name, baseURL string, client *http.Client) *HTTPLaunchSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPLaunchSource{
		name:    name,
		baseURL: baseURL,
		client:  client,
		since:   time.Now().Add(-time.Hour).UnixMilli(),
	}
}

// Name returns the source tag.
func (s *HTTPLaunchSource) Name() string { return s.name }

// Poll fetches launches newer than the cursor. The cursor only advances on
// success, so a failed poll replays nothing and loses nothing. Entries
// without a detected_at_ms field never advance the cursor; the deduplicator
// keeps replays harmless either way.
func (s *HTTPLaunchSource) Poll(ctx context.Context) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/launches?since=%d", s.baseURL, s.since)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build launches request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch launches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("launch API returned %d", resp.StatusCode)
	}

	var payloads []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode launches response: %w", err)
	}

	for _, p := range payloads {
		if ts, ok := p["detected_at_ms"].(float64); ok && int64(ts) > s.since {
			s.since = int64(ts)
		}
	}
	return payloads, nil
}

var _ LaunchSource = (*HTTPLaunchSource)(nil)
