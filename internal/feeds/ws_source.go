package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"memecoin-sniper/internal/launch"
)

// WSConfig configures the launch stream connection.
type WSConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the keepalive cadence.
	PingInterval time.Duration
	// ReadTimeout bounds a single message read.
	ReadTimeout time.Duration
	// WriteTimeout bounds ping writes.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns the standard stream configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WSLaunchStream consumes a websocket feed of launch payloads and pushes
// each message through the deduplicator. Messages that fail to decode are
// dropped; the deduplicator handles everything else.
type WSLaunchStream struct {
	name     string
	endpoint string
	deduper  *launch.Deduper
	cfg      WSConfig
	logger   *log.Logger
}

// NewWSLaunchStream creates a stream for the given endpoint. The name tags
// records from this feed as their launch source.
func NewWSLaunchStream(name, endpoint string, deduper *launch.Deduper, cfg WSConfig, logger *log.Logger) *WSLaunchStream {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.ReconnectDelay == 0 {
		cfg = DefaultWSConfig()
	}
	return &WSLaunchStream{
		name:     name,
		endpoint: endpoint,
		deduper:  deduper,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run connects and consumes until the context is canceled, reconnecting
// with exponential backoff on any connection failure.
func (s *WSLaunchStream) Run(ctx context.Context) {
	delay := s.cfg.ReconnectDelay

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := s.dial(ctx)
		if err != nil {
			s.logger.Printf("[feeds] Dial %s failed, retrying in %s: %v", s.name, delay, err)
			if !sleep(ctx, delay) {
				return
			}
			delay = nextDelay(delay, s.cfg.MaxReconnectDelay)
			continue
		}

		s.logger.Printf("[feeds] Connected to %s launch stream", s.name)
		delay = s.cfg.ReconnectDelay

		err = s.consume(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return
		}

		s.logger.Printf("[feeds] Stream %s dropped, reconnecting in %s: %v", s.name, delay, err)
		if !sleep(ctx, delay) {
			return
		}
		delay = nextDelay(delay, s.cfg.MaxReconnectDelay)
	}
}

func (s *WSLaunchStream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", s.endpoint, err)
	}
	return conn, nil
}

// consume reads messages until the connection fails, pinging on the
// keepalive cadence from a side goroutine.
func (s *WSLaunchStream) consume(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()

	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return // reader sees the dead connection
				}
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var raw map[string]any
		if err := json.Unmarshal(message, &raw); err != nil {
			s.logger.Printf("[feeds] Undecodable message from %s dropped", s.name)
			continue
		}

		if err := s.deduper.Ingest(ctx, s.name, raw); err != nil {
			s.logger.Printf("[feeds] Ingest from %s failed: %v", s.name, err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
