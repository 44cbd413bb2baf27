package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"memecoin-sniper/internal/domain"
)

// HTTPMentionSource polls a JSON mention API with a timestamp cursor.
// Endpoint contract: GET {base}/mentions?since={ms} returns an array of
// mention objects; the cursor advances past the newest returned event so
// consecutive polls never replay.
type HTTPMentionSource struct {
	name    string
	baseURL string
	client  *http.Client
	since   int64
}

// NewHTTPMentionSource creates a mention source for the given API base URL.
// The name tags events from this feed.
func NewHTTPMentionSource(name, baseURL string, client *http.Client) *HTTPMentionSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPMentionSource{
		name:    name,
		baseURL: baseURL,
		client:  client,
		since:   time.Now().Add(-time.Hour).UnixMilli(),
	}
}

// Name returns the source tag.
func (s *HTTPMentionSource) Name() string { return s.name }

type mentionPayload struct {
	Symbol      string `json:"symbol"`
	TimestampMs int64  `json:"timestamp_ms"`
	Followers   int64  `json:"followers"`
	Engagement  int64  `json:"engagement"`
	SourceID    string `json:"source_id"`
}

// Poll fetches mentions newer than the cursor. The cursor only advances on
// success, so a failed poll replays nothing and loses nothing.
func (s *HTTPMentionSource) Poll(ctx context.Context) ([]domain.MentionEvent, error) {
	endpoint := fmt.Sprintf("%s/mentions?since=%d", s.baseURL, s.since)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build mentions request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mention API returned %d", resp.StatusCode)
	}

	var payloads []mentionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode mentions response: %w", err)
	}

	events := make([]domain.MentionEvent, 0, len(payloads))
	for _, p := range payloads {
		if p.Symbol == "" {
			continue
		}
		events = append(events, domain.MentionEvent{
			Symbol:      p.Symbol,
			TimestampMs: p.TimestampMs,
			Followers:   p.Followers,
			Engagement:  p.Engagement,
			SourceID:    p.SourceID,
		})
		if p.TimestampMs > s.since {
			s.since = p.TimestampMs
		}
	}
	return events, nil
}

var _ MentionSource = (*HTTPMentionSource)(nil)
