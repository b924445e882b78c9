package service

import (
	"context"
	"log"
	"math"

	"glowing-telegram/internal/domain"
	"glowing-telegram/internal/ta"

	"go.opentelemetry.io/otel/trace"
)

// KlineFetcher supplies closed candles, oldest first.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]*domain.Candle, error)
}

// CandleStore archives fetched candles. May be absent.
type CandleStore interface {
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
}

type SnapshotConfig struct {
	Symbols         []string
	RSILen          int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	Lookback1H      int
	Lookback1D      int
	Enable4H        bool
	Allow1HFallback bool
}

func (c SnapshotConfig) withDefaults() SnapshotConfig {
	if len(c.Symbols) == 0 {
		c.Symbols = domain.DefaultSymbols
	}
	if c.RSILen <= 0 {
		c.RSILen = 14
	}
	if c.MACDFast <= 0 {
		c.MACDFast = 12
	}
	if c.MACDSlow <= 0 {
		c.MACDSlow = 26
	}
	if c.MACDSignal <= 0 {
		c.MACDSignal = 9
	}
	if c.Lookback1H <= 0 {
		c.Lookback1H = 900
	}
	if c.Lookback1D <= 0 {
		c.Lookback1D = 500
	}
	return c
}

// minBars is the shortest series that yields a warmed-up RSI and MACD signal.
func (c SnapshotConfig) minBars() int {
	rsi := c.RSILen + 1
	macd := c.MACDSlow + c.MACDSignal
	if rsi > macd {
		return rsi
	}
	return macd
}

// SnapshotService turns raw exchange candles into per-timeframe indicator
// snapshots. One snapshot per (symbol, timeframe); symbols or timeframes
// with insufficient data are skipped, never guessed.
type SnapshotService struct {
	tracer  trace.Tracer
	fetcher KlineFetcher
	repo    CandleStore
	cfg     SnapshotConfig
}

func NewSnapshotService(tracer trace.Tracer, fetcher KlineFetcher, repo CandleStore, cfg SnapshotConfig) *SnapshotService {
	return &SnapshotService{
		tracer:  tracer,
		fetcher: fetcher,
		repo:    repo,
		cfg:     cfg.withDefaults(),
	}
}

// CollectSnapshots fetches 1H and 1D candles for every configured symbol,
// derives 4H by resampling, and computes indicator snapshots. A symbol whose
// fetch fails is logged and dropped from this run; the rest proceed.
func (s *SnapshotService) CollectSnapshots(ctx context.Context) []domain.IndicatorSnapshot {
	ctx, span := s.tracer.Start(ctx, "snapshot-service.collect")
	defer span.End()

	var snapshots []domain.IndicatorSnapshot
	for _, symbol := range s.cfg.Symbols {
		snapshots = append(snapshots, s.collectSymbol(ctx, symbol)...)
	}
	return snapshots
}

// BuildReport produces on-demand daily-report rows from fresh data, one row
// per configured symbol. Symbols without a usable daily snapshot get an
// empty row rather than vanishing from the table.
func (s *SnapshotService) BuildReport(ctx context.Context) []domain.ReportRow {
	ctx, span := s.tracer.Start(ctx, "snapshot-service.build-report")
	defer span.End()

	bySymbol := map[string]domain.IndicatorSnapshot{}
	for _, snap := range s.CollectSnapshots(ctx) {
		if snap.Timeframe == domain.TimeframeD1 {
			bySymbol[snap.Symbol] = snap
		}
	}
	if len(bySymbol) == 0 {
		return nil
	}

	rows := make([]domain.ReportRow, 0, len(s.cfg.Symbols))
	for _, symbol := range s.cfg.Symbols {
		snap, ok := bySymbol[symbol]
		if !ok {
			rows = append(rows, domain.ReportRow{Symbol: symbol})
			continue
		}
		rows = append(rows, domain.ReportRow{
			Symbol:    symbol,
			ChangePct: snap.ChangePct(),
			MACDDelta: snap.MACDLine - snap.MACDSignal,
			Trend:     domain.TrendFromMACD(snap.MACDLine, snap.MACDSignal),
			HasData:   true,
		})
	}
	return rows
}

func (s *SnapshotService) collectSymbol(ctx context.Context, symbol string) []domain.IndicatorSnapshot {
	var out []domain.IndicatorSnapshot

	h1, err := s.fetcher.FetchKlines(ctx, symbol, domain.TimeframeH1, s.cfg.Lookback1H)
	if err != nil {
		log.Printf("fetch 1h candles for %s: %v", symbol, err)
	} else {
		s.archive(ctx, h1)
		if snap, ok := s.snapshotFrom(h1, symbol, domain.TimeframeH1); ok {
			out = append(out, snap)
		}
		if s.cfg.Enable4H {
			if snap, ok := s.snapshot4H(h1, symbol); ok {
				out = append(out, snap)
			}
		}
	}

	d1, err := s.fetcher.FetchKlines(ctx, symbol, domain.TimeframeD1, s.cfg.Lookback1D)
	if err != nil {
		log.Printf("fetch 1d candles for %s: %v", symbol, err)
	} else {
		s.archive(ctx, d1)
		if snap, ok := s.snapshotFrom(d1, symbol, domain.TimeframeD1); ok {
			out = append(out, snap)
		}
	}

	return out
}

// snapshot4H resamples 1H candles into 4H buckets. When the resampled
// series is too short to warm up the indicators, the raw 1H series stands
// in for the 4H timeframe if the fallback is enabled.
func (s *SnapshotService) snapshot4H(h1 []*domain.Candle, symbol string) (domain.IndicatorSnapshot, bool) {
	resampled := ta.Resample4H(h1)
	if len(resampled) >= s.cfg.minBars() {
		return s.snapshotFrom(resampled, symbol, domain.TimeframeH4)
	}
	if !s.cfg.Allow1HFallback {
		log.Printf("insufficient 4h candles for %s (%d), skipping", symbol, len(resampled))
		return domain.IndicatorSnapshot{}, false
	}
	log.Printf("insufficient 4h candles for %s (%d), falling back to 1h series", symbol, len(resampled))
	return s.snapshotFrom(h1, symbol, domain.TimeframeH4)
}

func (s *SnapshotService) snapshotFrom(candles []*domain.Candle, symbol string, tf domain.Timeframe) (domain.IndicatorSnapshot, bool) {
	if len(candles) < s.cfg.minBars() {
		log.Printf("insufficient %s candles for %s (%d < %d), skipping", tf, symbol, len(candles), s.cfg.minBars())
		return domain.IndicatorSnapshot{}, false
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	rsi := ta.RSISeries(closes, s.cfg.RSILen)
	macdLine, macdSignal := ta.MACDSeries(closes, s.cfg.MACDFast, s.cfg.MACDSlow, s.cfg.MACDSignal)

	last := len(closes) - 1
	if rsi == nil || math.IsNaN(rsi[last]) || math.IsNaN(macdLine[last]) || math.IsNaN(macdSignal[last]) {
		log.Printf("indicators not warmed up for %s %s, skipping", symbol, tf)
		return domain.IndicatorSnapshot{}, false
	}

	return domain.IndicatorSnapshot{
		Symbol:          symbol,
		Timeframe:       tf,
		Close:           closes[last],
		PriorClose:      closes[last-1],
		RSI:             rsi[last],
		MACDLine:        macdLine[last],
		MACDSignal:      macdSignal[last],
		CandleCloseTime: candles[last].CloseTime,
	}, true
}

func (s *SnapshotService) archive(ctx context.Context, candles []*domain.Candle) {
	if s.repo == nil || len(candles) == 0 {
		return
	}
	if err := s.repo.UpsertCandles(ctx, candles); err != nil {
		log.Printf("archive candles: %v", err)
	}
}
