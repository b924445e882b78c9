package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Runner is one full evaluation cycle (snapshots, engine, delivery, save).
type Runner interface {
	RunOnce(ctx context.Context) error
}

// EngineJob drives the runner on a fixed interval in daemon mode. The
// one-shot binary calls the runner directly and never starts this job.
type EngineJob struct {
	tracer       trace.Tracer
	runner       Runner
	pollInterval time.Duration
}

func NewEngineJob(tracer trace.Tracer, runner Runner, pollInterval time.Duration) *EngineJob {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Minute
	}
	return &EngineJob{tracer: tracer, runner: runner, pollInterval: pollInterval}
}

// Start runs an immediate cycle and then ticks until ctx is cancelled.
func (j *EngineJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Engine job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Engine job stopped")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *EngineJob) runOnce(ctx context.Context) {
	_, span := j.tracer.Start(ctx, "engine-job.run-once")
	defer span.End()

	started := time.Now()
	if err := j.runner.RunOnce(ctx); err != nil {
		log.Printf("Engine cycle error: %v", err)
		return
	}
	log.Printf("Engine cycle complete in %s", time.Since(started).Round(time.Millisecond))
}
