// Package notify delivers pipeline outcome alerts to one or more sinks.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"memecoin-sniper/internal/observability"
)

// EventKind classifies an alert.
type EventKind string

const (
	EventStrongTrend  EventKind = "strong_trend"
	EventNewLaunch    EventKind = "new_launch"
	EventSafetySkip   EventKind = "safety_skip"
	EventTradePlaced  EventKind = "trade_placed"
	EventWouldTrade   EventKind = "would_trade"
	EventTradeFilled  EventKind = "trade_filled"
	EventPositionExit EventKind = "position_exit"
	EventError        EventKind = "error"
)

// Event is a single pipeline outcome to be delivered.
type Event struct {
	Kind      EventKind
	Symbol    string
	Token     string
	Message   string
	Fields    map[string]string
	Timestamp time.Time
}

// Format renders the event as a single human-readable line.
func (e *Event) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.Symbol != "" {
		fmt.Fprintf(&b, " %s", e.Symbol)
	}
	if e.Token != "" {
		fmt.Fprintf(&b, " (%s)", e.Token)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for k, v := range e.Fields {
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}

// Notifier delivers a single event to a sink.
type Notifier interface {
	Notify(ctx context.Context, event *Event) error
}

// Dispatcher fans events out to multiple sinks. A failing sink is logged
// and never blocks delivery to the others.
type Dispatcher struct {
	mu     sync.RWMutex
	sinks  []Notifier
	logger *log.Logger
}

// NewDispatcher creates a Dispatcher over the given sinks.
func NewDispatcher(logger *log.Logger, sinks ...Notifier) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{sinks: sinks, logger: logger}
}

// Add registers another sink.
func (d *Dispatcher) Add(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, n)
}

// Notify delivers the event to every sink. Sink failures are isolated:
// each is logged, and the last one is returned.
func (d *Dispatcher) Notify(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	d.mu.RLock()
	sinks := make([]Notifier, len(d.sinks))
	copy(sinks, d.sinks)
	d.mu.RUnlock()

	var lastErr error
	for _, sink := range sinks {
		if err := sink.Notify(ctx, event); err != nil {
			d.logger.Printf("[notify] Sink %T failed: %v", sink, err)
			observability.DefaultMetrics.NotificationsFailed.Inc()
			lastErr = err
			continue
		}
		observability.DefaultMetrics.NotificationsSent.Inc()
	}
	return lastErr
}

// LogNotifier writes events to a standard logger. It is the default sink
// and the fallback when no external channel is configured.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify writes the formatted event to the logger.
func (n *LogNotifier) Notify(_ context.Context, event *Event) error {
	n.logger.Printf("[notify] %s", event.Format())
	return nil
}

var _ Notifier = (*Dispatcher)(nil)
var _ Notifier = (*LogNotifier)(nil)
