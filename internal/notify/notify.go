// Package notify delivers outbound event notifications to optionally
// configured sinks. Delivery is best-effort: a sink failure is logged and
// never surfaces to the request that triggered it.
package notify

import (
	"log/slog"
	"time"
)

// Event is the tagged envelope sent to every sink.
type Event struct {
	Event     string         `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
	Metadata  *Metadata      `json:"metadata,omitempty"`
}

type Metadata struct {
	TriggeredBy string `json:"triggeredBy,omitempty"`
	ProjectID   string `json:"projectId,omitempty"`
	FeedbackID  string `json:"feedbackId,omitempty"`
}

func NewEvent(name string, data map[string]any, meta *Metadata) Event {
	return Event{
		Event:     name,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Metadata:  meta,
	}
}

// Sink is one outbound destination.
type Sink interface {
	Name() string
	IsConfigured() bool
	// Send attempts delivery and reports whether the remote endpoint
	// accepted the event.
	Send(Event) bool
}

// Dispatcher fans an event out to every configured sink.
type Dispatcher struct {
	sinks []Sink
}

func NewDispatcher(sinks ...Sink) *Dispatcher {
	return &Dispatcher{sinks: sinks}
}

// Dispatch delivers ev on a background goroutine and returns immediately.
func (d *Dispatcher) Dispatch(ev Event) {
	go d.deliver(ev)
}

func (d *Dispatcher) deliver(ev Event) {
	for _, sink := range d.sinks {
		if !sink.IsConfigured() {
			continue
		}
		if !sink.Send(ev) {
			slog.Warn("notification delivery failed", "sink", sink.Name(), "event", ev.Event)
			continue
		}
		slog.Info("notification delivered", "sink", sink.Name(), "event", ev.Event)
	}
}
