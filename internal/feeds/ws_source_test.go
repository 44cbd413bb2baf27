package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"memecoin-sniper/internal/launch"
	"memecoin-sniper/internal/storage/memory"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestWSLaunchStreamIngests(t *testing.T) {
	payloads := []string{
		`{"token_address":"` + testAddr + `","symbol":"PEPE","name":"Pepe","initial_price":0.0001}`,
		`not json at all`,
		`{"token_address":"` + testAddr + `","symbol":"PEPE"}`, // duplicate, ignored
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	store := memory.NewLaunchStore()
	deduper := launch.NewDeduper(store, nil, quietLogger())
	stream := NewWSLaunchStream("pump_fun", wsURL, deduper, DefaultWSConfig(), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stream.Run(ctx)
		close(done)
	}()

	waitFor(t, 2*time.Second, func() bool {
		return deduper.Tracked(testAddr)
	})

	cancel()
	<-done

	record, err := store.GetByAddress(context.Background(), testAddr)
	if err != nil {
		t.Fatalf("GetByAddress: %v", err)
	}
	if record.Source != "pump_fun" || record.Symbol != "PEPE" {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.InitialPrice != 0.0001 {
		t.Errorf("expected initial price 0.0001, got %f", record.InitialPrice)
	}
}

func TestWSLaunchStreamReconnects(t *testing.T) {
	var dials atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if dials.Add(1) == 1 {
			conn.Close() // drop the first connection immediately
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"token_address":"`+testAddr+`","symbol":"WIF"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	store := memory.NewLaunchStore()
	deduper := launch.NewDeduper(store, nil, quietLogger())

	cfg := DefaultWSConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 50 * time.Millisecond
	stream := NewWSLaunchStream("pump_fun", wsURL, deduper, cfg, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stream.Run(ctx)
		close(done)
	}()

	waitFor(t, 3*time.Second, func() bool {
		return deduper.Tracked(testAddr)
	})

	cancel()
	<-done

	if dials.Load() < 2 {
		t.Errorf("expected at least one reconnect, got %d dials", dials.Load())
	}
}
