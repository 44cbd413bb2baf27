package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestHTTPMentionSourcePoll(t *testing.T) {
	var lastSince int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		lastSince = since
		fmt.Fprint(w, `[
			{"symbol":"PEPE","timestamp_ms":1700000001000,"followers":500,"engagement":40,"source_id":"a"},
			{"symbol":"","timestamp_ms":1700000002000,"followers":1,"engagement":1,"source_id":"junk"},
			{"symbol":"WIF","timestamp_ms":1700000003000,"followers":900,"engagement":80,"source_id":"b"}
		]`)
	}))
	defer server.Close()

	src := NewHTTPMentionSource("twitter", server.URL, nil)
	events, err := src.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}

	// The empty-symbol row is dropped.
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Symbol != "PEPE" || events[1].Symbol != "WIF" {
		t.Errorf("unexpected symbols: %s, %s", events[0].Symbol, events[1].Symbol)
	}

	// The cursor advances to the newest timestamp seen.
	if _, err := src.Poll(context.Background()); err != nil {
		t.Fatalf("second Poll: %v", err)
	}
	if lastSince != 1700000003000 {
		t.Errorf("expected cursor 1700000003000, got %d", lastSince)
	}
}

func TestHTTPMentionSourceKeepsCursorOnFailure(t *testing.T) {
	fail := true
	var sinceSeen []int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		sinceSeen = append(sinceSeen, since)
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	src := NewHTTPMentionSource("twitter", server.URL, nil)
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
