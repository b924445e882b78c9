package engine

import (
	"log"
	"time"

	"glowing-telegram/internal/domain"
)

// Config is the full decision surface of one invocation, resolved before
// evaluation starts and never read ambiently mid-computation.
type Config struct {
	RSIBuy              float64
	RSIOpportunity      float64
	EnableOpportunity   bool
	BuyCooldown         time.Duration
	OpportunityCooldown time.Duration
	TrendCooldown       map[domain.Timeframe]time.Duration
	ReportLocation      *time.Location
	ReportWindowOpen    time.Duration
	ReportWindowClose   time.Duration
}

func (c Config) withDefaults() Config {
	if c.RSIBuy <= 0 {
		c.RSIBuy = 30
	}
	if c.RSIOpportunity <= 0 {
		c.RSIOpportunity = 40
	}
	if c.BuyCooldown <= 0 {
		c.BuyCooldown = 12 * time.Hour
	}
	if c.OpportunityCooldown <= 0 {
		c.OpportunityCooldown = 6 * time.Hour
	}
	if c.TrendCooldown == nil {
		c.TrendCooldown = map[domain.Timeframe]time.Duration{}
	}
	if c.TrendCooldown[domain.TimeframeD1] <= 0 {
		c.TrendCooldown[domain.TimeframeD1] = 24 * time.Hour
	}
	if c.TrendCooldown[domain.TimeframeH4] <= 0 {
		c.TrendCooldown[domain.TimeframeH4] = 12 * time.Hour
	}
	if c.ReportLocation == nil {
		c.ReportLocation = time.UTC
	}
	if c.ReportWindowClose <= 0 {
		c.ReportWindowOpen = 8 * time.Hour
		c.ReportWindowClose = 8*time.Hour + 15*time.Minute
	}
	return c
}

// Engine is the signal & trend state machine. Evaluate is a pure transaction
// over (snapshots, now, prior state): it performs no I/O and mutates nothing
// it was given.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// transitionCandidate is a trend change awaiting the cooldown filter.
type transitionCandidate struct {
	snap domain.IndicatorSnapshot
	from domain.TrendDirection
	to   domain.TrendDirection
}

// Evaluate processes all supplied snapshots against the prior state and
// returns the events to emit plus the successor document. The caller must
// treat persisting the document and delivering the events as one logical
// pair. The prior document is left untouched.
func (e *Engine) Evaluate(now time.Time, snapshots []domain.IndicatorSnapshot, prior *domain.StateDocument) ([]domain.Event, *domain.StateDocument) {
	next := prior.Clone()

	var (
		order       []string
		seen        = map[string]bool{}
		priorH1     = map[string]domain.TrendDirection{}
		freshH1     = map[string]domain.IndicatorSnapshot{}
		latestD1    = map[string]domain.IndicatorSnapshot{}
		transitions []transitionCandidate
		anyFresh    bool
	)

	for _, snap := range snapshots {
		if snap.Symbol == "" || snap.CandleCloseTime.IsZero() {
			log.Printf("engine: dropping malformed snapshot %+v", snap)
			continue
		}
		switch snap.Timeframe {
		case domain.TimeframeH1, domain.TimeframeH4, domain.TimeframeD1:
		default:
			log.Printf("engine: dropping snapshot with unknown timeframe %q for %s", snap.Timeframe, snap.Symbol)
			continue
		}

		if !seen[snap.Symbol] {
			seen[snap.Symbol] = true
			order = append(order, snap.Symbol)
		}

		cs := next.Coin(snap.Symbol)

		if snap.Timeframe == domain.TimeframeD1 {
			// The latest D1 values feed the daily report even when the
			// candle itself is a repeat; only state advances are gated.
			latestD1[snap.Symbol] = snap
		}

		// Idempotence guard: a repeated or stale candle must not move state
		// or re-trigger transition detection.
		if !snap.CandleCloseTime.After(cs.LastCloseFor(snap.Timeframe)) {
			log.Printf("engine: %s %s candle %s already processed, skipping", snap.Symbol, snap.Timeframe, snap.CandleCloseTime.Format(time.RFC3339))
			continue
		}
		anyFresh = true

		priorDir := cs.TrendFor(snap.Timeframe)
		upd := UpdateTrend(priorDir, snap)

		if snap.Timeframe == domain.TimeframeH1 {
			priorH1[snap.Symbol] = priorDir
			freshH1[snap.Symbol] = snap
		}

		// H1 direction history exists only to power buy-signal edge
		// detection; transitions on it are not alert-worthy.
		if upd.Transitioned && snap.Timeframe != domain.TimeframeH1 {
			transitions = append(transitions, transitionCandidate{snap: snap, from: upd.From, to: upd.Direction})
		}

		cs.SetTrend(snap.Timeframe, upd.Direction)
		cs.SetLastClose(snap.Timeframe, snap.CandleCloseTime)
	}

	var events []domain.Event

	for _, tr := range transitions {
		cs := next.Coin(tr.snap.Symbol)
		tf := tr.snap.Timeframe
		if !AllowAlert(now, cs.LastTrendAlertFor(tf), e.cfg.TrendCooldown[tf]) {
			continue
		}
		cs.SetLastTrendAlert(tf, now)
		events = append(events, composeTrendChange(tr.snap, tr.from, tr.to, now))
	}

	for _, symbol := range order {
		h1, ok := freshH1[symbol]
		if !ok {
			continue
		}
		cs := next.Coin(symbol)

		// The confirmed D1 trend is whatever was just computed this run,
		// falling back to the persisted direction when no D1 candle came in.
		d1 := cs.TrendFor(domain.TimeframeD1)

		if DetectBuy(h1, priorH1[symbol], d1, e.cfg.RSIBuy) {
			if AllowAlert(now, cs.LastBuySignal, e.cfg.BuyCooldown) {
				cs.LastBuySignal = now
				events = append(events, composeBuy(h1, d1, now))
			}
			continue
		}

		if e.cfg.EnableOpportunity && DetectOpportunity(h1, d1, e.cfg.RSIOpportunity) {
			if AllowAlert(now, cs.LastOpportunity, e.cfg.OpportunityCooldown) {
				cs.LastOpportunity = now
				events = append(events, composeOpportunity(h1, d1, now))
			}
		}
	}

	if anyFresh && ShouldReport(now, next.LastDailyReportDate, e.cfg.ReportLocation, e.cfg.ReportWindowOpen, e.cfg.ReportWindowClose) {
		rows := make([]domain.ReportRow, 0, len(order))
		for _, symbol := range order {
			d1, ok := latestD1[symbol]
			if !ok {
				rows = append(rows, domain.ReportRow{Symbol: symbol})
				continue
			}
			rows = append(rows, domain.ReportRow{
				Symbol:    symbol,
				ChangePct: d1.ChangePct(),
				MACDDelta: d1.MACDLine - d1.MACDSignal,
				Trend:     domain.TrendFromMACD(d1.MACDLine, d1.MACDSignal),
				HasData:   true,
			})
		}
		next.LastDailyReportDate = ReportDate(now, e.cfg.ReportLocation)
		events = append(events, composeDailyReport(rows, now))
	}

	events = append(events, composeHeartbeat(now))

	return events, next
}
