package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestHTTPLaunchSourcePoll(t *testing.T) {
	var lastSince int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		lastSince = since
		fmt.Fprint(w, `[
			{"token_address":"So11111111111111111111111111111111111111112","symbol":"BONK","detected_at_ms":1700000001000,"initial_price":0.0001,"creator":"dev1"},
			{"symbol":"NOADDR","detected_at_ms":1700000002000}
		]`)
	}))
	defer server.Close()

	src := NewHTTPLaunchSource("gmgn", server.URL, nil)
	payloads, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	// Payloads pass through raw; the deduplicator filters malformed ones.
	if len(payloads) != 2 {
		t.Fatalf("expected 2 payloads, got %d", len(payloads))
	}
	if payloads[0]["symbol"] != "BONK" {
		t.Errorf("expected first payload symbol BONK, got %v", payloads[0]["symbol"])
	}
	if payloads[0]["creator"] != "dev1" {
		t.Errorf("source-specific field dropped: %v", payloads[0])
	}

	// The cursor advances to the newest detected_at_ms seen.
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if lastSince != 1700000002000 {
		t.Errorf("expected cursor 1700000002000, got %d", lastSince)
	}
}

func TestHTTPLaunchSourceKeepsCursorOnFailure(t *testing.T) {
	fail := true
	var sinceSeen []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		sinceSeen = append(sinceSeen, since)
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	src := NewHTTPLaunchSource("gmgn", server.URL, nil)
	if _, err := src.Poll(context.Background()); err == nil {
		t.Fatal("expected an error from the failing poll")
	}

	fail = false
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(sinceSeen) != 2 || sinceSeen[0] != sinceSeen[1] {
		t.Errorf("cursor must not move on failure: %v", sinceSeen)
	}
}
