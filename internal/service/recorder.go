package service

import (
	"context"
	"sync"

	"glowing-telegram/internal/domain"
)

const defaultRecorderCap = 100

// EventRecorder is an EventSink that keeps the most recent events in memory
// for the HTTP surface. Heartbeats are recorded too; they are how the API
// shows liveness.
type EventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
	cap    int
}

func NewEventRecorder(capacity int) *EventRecorder {
	if capacity <= 0 {
		capacity = defaultRecorderCap
	}
	return &EventRecorder{cap: capacity}
}

func (r *EventRecorder) Deliver(ctx context.Context, event domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if len(r.events) > r.cap {
		r.events = r.events[len(r.events)-r.cap:]
	}
	return nil
}

// Recent returns the recorded events, newest first.
func (r *EventRecorder) Recent() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Event, len(r.events))
	for i, ev := range r.events {
		out[len(r.events)-1-i] = ev
	}
	return out
}
