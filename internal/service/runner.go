package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"glowing-telegram/internal/domain"
	"glowing-telegram/internal/engine"

	"go.opentelemetry.io/otel/trace"
)

// StateStore persists the alert state document between invocations.
type StateStore interface {
	Load(ctx context.Context) *domain.StateDocument
	Save(ctx context.Context, doc *domain.StateDocument) error
}

// SnapshotCollector supplies the indicator snapshots for one run.
type SnapshotCollector interface {
	CollectSnapshots(ctx context.Context) []domain.IndicatorSnapshot
}

// NewsEvaluator emits news alerts and stamps their cooldowns on doc.
type NewsEvaluator interface {
	Evaluate(ctx context.Context, now time.Time, snapshots []domain.IndicatorSnapshot, doc *domain.StateDocument) []domain.Event
}

// EventSink delivers one event to one destination.
type EventSink interface {
	Deliver(ctx context.Context, event domain.Event) error
}

// Runner executes one full evaluation cycle: load state, collect snapshots,
// run the engine, deliver, save. It is the unit both the one-shot binary and
// the daemon ticker invoke.
type Runner struct {
	tracer    trace.Tracer
	store     StateStore
	collector SnapshotCollector
	engine    *engine.Engine
	news      NewsEvaluator // optional
	sinks     []EventSink
	now       func() time.Time
}

func NewRunner(tracer trace.Tracer, store StateStore, collector SnapshotCollector, eng *engine.Engine, news NewsEvaluator, sinks ...EventSink) *Runner {
	return &Runner{
		tracer:    tracer,
		store:     store,
		collector: collector,
		engine:    eng,
		news:      news,
		sinks:     sinks,
		now:       time.Now,
	}
}

// RunOnce performs a single invocation. Delivery failures are logged per
// event and never abort the run; a state save failure is the only error,
// and it is returned after delivery has been attempted.
func (r *Runner) RunOnce(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "runner.run-once")
	defer span.End()

	now := r.now()
	prior := r.store.Load(ctx)
	snapshots := r.collector.CollectSnapshots(ctx)

	events, next := r.engine.Evaluate(now, snapshots, prior)

	if r.news != nil {
		newsEvents := r.news.Evaluate(ctx, now, snapshots, next)
		if len(newsEvents) > 0 {
			// The engine always ends with the heartbeat; keep it last.
			heartbeat := events[len(events)-1]
			events = append(events[:len(events)-1], newsEvents...)
			events = append(events, heartbeat)
		}
	}

	for _, event := range events {
		for _, sink := range r.sinks {
			if err := sink.Deliver(ctx, event); err != nil {
				log.Printf("deliver %s event: %v", event.Kind, err)
			}
		}
	}

	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
