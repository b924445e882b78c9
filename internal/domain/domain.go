package domain

import "time"

// Timeframe identifies the candle interval a snapshot was computed on.
// D1 is authoritative for trend confirmation, H1 drives buy-signal timing,
// H4 is optional intraday tracking.
type Timeframe string

const (
	TimeframeH1 Timeframe = "1h"
	TimeframeH4 Timeframe = "4h"
	TimeframeD1 Timeframe = "1d"
)

// Timeframes lists every timeframe the engine knows about, lower first.
var Timeframes = []Timeframe{TimeframeH1, TimeframeH4, TimeframeD1}

// Duration returns the candle width, or 0 for an unknown timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TimeframeH1:
		return time.Hour
	case TimeframeH4:
		return 4 * time.Hour
	case TimeframeD1:
		return 24 * time.Hour
	default:
		return 0
	}
}

// TrendDirection is the MACD-derived direction for one (asset, timeframe).
// The zero value means "never observed".
type TrendDirection string

const (
	TrendUnknown TrendDirection = ""
	TrendUp      TrendDirection = "up"
	TrendDown    TrendDirection = "down"
	TrendFlat    TrendDirection = "flat"
)

// TrendFromMACD derives a direction from MACD polarity. Exact equality of
// the two lines is a distinct FLAT direction, not an unknown.
func TrendFromMACD(macdLine, macdSignal float64) TrendDirection {
	switch {
	case macdLine > macdSignal:
		return TrendUp
	case macdLine < macdSignal:
		return TrendDown
	default:
		return TrendFlat
	}
}

func (d TrendDirection) Arrow() string {
	switch d {
	case TrendUp:
		return "↑"
	case TrendDown:
		return "↓"
	case TrendFlat:
		return "→"
	default:
		return "?"
	}
}

// IndicatorSnapshot carries the indicator values for the latest closed
// candle of one (asset, timeframe). It is produced by the snapshot service
// and consumed by the engine; the engine never recomputes indicators.
type IndicatorSnapshot struct {
	Symbol          string
	Timeframe       Timeframe
	Close           float64
	PriorClose      float64
	RSI             float64
	MACDLine        float64
	MACDSignal      float64
	CandleCloseTime time.Time
}

// ChangePct is the percentage move of the latest close against the prior one.
func (s IndicatorSnapshot) ChangePct() float64 {
	if s.PriorClose == 0 {
		return 0
	}
	return (s.Close - s.PriorClose) / s.PriorClose * 100
}

type EventKind string

const (
	EventBuySignal   EventKind = "buy_signal"
	EventOpportunity EventKind = "opportunity"
	EventTrendChange EventKind = "trend_change"
	EventDailyReport EventKind = "daily_report"
	EventNewsAlert   EventKind = "news_alert"
	EventHeartbeat   EventKind = "heartbeat"
)

// ReportRow is one asset line of the daily summary table.
type ReportRow struct {
	Symbol    string
	ChangePct float64
	MACDDelta float64
	Trend     TrendDirection
	HasData   bool
}

// Headline is one scored news item attached to a news alert.
type Headline struct {
	Title     string
	URL       string
	Important bool
	Sentiment string
}

// Event is a notification-worthy occurrence decided within one invocation.
// Events are transient: composed, delivered, and never persisted.
type Event struct {
	Kind      EventKind
	Symbol    string // empty for batch-level kinds (daily report, heartbeat)
	Timeframe Timeframe
	Price     float64
	RSI       float64
	MACDLine  float64
	From      TrendDirection
	To        TrendDirection
	D1Trend   TrendDirection
	ChangePct float64
	Rows      []ReportRow
	Headlines []Headline
	At        time.Time
}
