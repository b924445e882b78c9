package service

import (
	"context"
	"log"
	"math"
	"time"

	"glowing-telegram/internal/domain"
	"glowing-telegram/internal/engine"

	"go.opentelemetry.io/otel/trace"
)

// HeadlineFetcher supplies scored news headlines for one symbol.
type HeadlineFetcher interface {
	FetchHeadlines(ctx context.Context, symbol string) ([]domain.Headline, error)
}

type NewsConfig struct {
	MovePct  float64
	Cooldown time.Duration
}

func (c NewsConfig) withDefaults() NewsConfig {
	if c.MovePct <= 0 {
		c.MovePct = 3.0
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 6 * time.Hour
	}
	return c
}

// NewsService raises a news alert when a coin's daily close moves more than
// the configured percentage, attaching sentiment-tagged headlines. One alert
// per coin per cooldown window; the stamp lives in the same state document
// as the signal cooldowns.
type NewsService struct {
	tracer  trace.Tracer
	fetcher HeadlineFetcher
	scorer  *SentimentScorer
	cfg     NewsConfig
}

func NewNewsService(tracer trace.Tracer, fetcher HeadlineFetcher, scorer *SentimentScorer, cfg NewsConfig) *NewsService {
	return &NewsService{
		tracer:  tracer,
		fetcher: fetcher,
		scorer:  scorer,
		cfg:     cfg.withDefaults(),
	}
}

// Evaluate inspects the daily snapshots and emits at most one news alert per
// qualifying coin, stamping its cooldown on doc. A headline fetch failure
// skips the coin without stamping, so the next run retries.
func (s *NewsService) Evaluate(ctx context.Context, now time.Time, snapshots []domain.IndicatorSnapshot, doc *domain.StateDocument) []domain.Event {
	ctx, span := s.tracer.Start(ctx, "news-service.evaluate")
	defer span.End()

	var events []domain.Event
	for _, snap := range snapshots {
		if snap.Timeframe != domain.TimeframeD1 {
			continue
		}
		change := snap.ChangePct()
		if math.Abs(change) < s.cfg.MovePct {
			continue
		}

		cs := doc.Coin(snap.Symbol)
		if !engine.AllowAlert(now, cs.LastNewsAlert, s.cfg.Cooldown) {
			continue
		}

		headlines, err := s.fetcher.FetchHeadlines(ctx, snap.Symbol)
		if err != nil {
			log.Printf("fetch headlines for %s: %v", snap.Symbol, err)
			continue
		}
		headlines = s.scorer.Annotate(ctx, headlines)

		cs.LastNewsAlert = now.UTC()
		events = append(events, domain.Event{
			Kind:      domain.EventNewsAlert,
			Symbol:    snap.Symbol,
			Timeframe: domain.TimeframeD1,
			Price:     snap.Close,
			ChangePct: change,
			Headlines: headlines,
			At:        now,
		})
	}
	return events
}
