package domain

import "time"

// SchemaVersion is bumped whenever the persisted layout changes shape in a
// way old readers cannot interpret. A mismatched document is discarded on
// load, never migrated in place.
const SchemaVersion = 1

// CoinState is everything remembered about one asset between invocations.
// Every field defaults to never/unknown; a missing asset entry widens the
// set of "first observation" outcomes but is never an error.
type CoinState struct {
	Trend           map[Timeframe]TrendDirection `json:"trend,omitempty"`
	LastCandleClose map[Timeframe]time.Time      `json:"last_candle_close,omitempty"`
	LastTrendAlert  map[Timeframe]time.Time      `json:"last_trend_alert,omitempty"`
	LastBuySignal   time.Time                    `json:"last_buy_signal,omitempty"`
	LastOpportunity time.Time                    `json:"last_opportunity,omitempty"`
	LastNewsAlert   time.Time                    `json:"last_news_alert,omitempty"`
}

func (c *CoinState) TrendFor(tf Timeframe) TrendDirection {
	if c == nil || c.Trend == nil {
		return TrendUnknown
	}
	return c.Trend[tf]
}

func (c *CoinState) SetTrend(tf Timeframe, d TrendDirection) {
	if c.Trend == nil {
		c.Trend = make(map[Timeframe]TrendDirection)
	}
	c.Trend[tf] = d
}

func (c *CoinState) LastCloseFor(tf Timeframe) time.Time {
	if c == nil || c.LastCandleClose == nil {
		return time.Time{}
	}
	return c.LastCandleClose[tf]
}

func (c *CoinState) SetLastClose(tf Timeframe, t time.Time) {
	if c.LastCandleClose == nil {
		c.LastCandleClose = make(map[Timeframe]time.Time)
	}
	c.LastCandleClose[tf] = t
}

func (c *CoinState) LastTrendAlertFor(tf Timeframe) time.Time {
	if c == nil || c.LastTrendAlert == nil {
		return time.Time{}
	}
	return c.LastTrendAlert[tf]
}

func (c *CoinState) SetLastTrendAlert(tf Timeframe, t time.Time) {
	if c.LastTrendAlert == nil {
		c.LastTrendAlert = make(map[Timeframe]time.Time)
	}
	c.LastTrendAlert[tf] = t
}

// StateDocument is the single persisted document threaded through one
// invocation: loaded once, mutated in memory, written back atomically.
type StateDocument struct {
	SchemaVersion       int                   `json:"schema_version"`
	Coins               map[string]*CoinState `json:"coins"`
	LastDailyReportDate string                `json:"last_daily_report_date,omitempty"`
}

func NewStateDocument() *StateDocument {
	return &StateDocument{
		SchemaVersion: SchemaVersion,
		Coins:         make(map[string]*CoinState),
	}
}

// Coin returns the state for a symbol, creating an empty entry on first
// observation.
func (d *StateDocument) Coin(symbol string) *CoinState {
	if d.Coins == nil {
		d.Coins = make(map[string]*CoinState)
	}
	cs, ok := d.Coins[symbol]
	if !ok {
		cs = &CoinState{}
		d.Coins[symbol] = cs
	}
	return cs
}

// Clone deep-copies the document so the engine can build the next state
// without touching the loaded one until commit.
func (d *StateDocument) Clone() *StateDocument {
	out := NewStateDocument()
	if d == nil {
		return out
	}
	out.SchemaVersion = d.SchemaVersion
	out.LastDailyReportDate = d.LastDailyReportDate
	for symbol, cs := range d.Coins {
		if cs == nil {
			continue
		}
		cp := &CoinState{
			LastBuySignal:   cs.LastBuySignal,
			LastOpportunity: cs.LastOpportunity,
			LastNewsAlert:   cs.LastNewsAlert,
		}
		for tf, dir := range cs.Trend {
			cp.SetTrend(tf, dir)
		}
		for tf, t := range cs.LastCandleClose {
			cp.SetLastClose(tf, t)
		}
		for tf, t := range cs.LastTrendAlert {
			cp.SetLastTrendAlert(tf, t)
		}
		out.Coins[symbol] = cp
	}
	return out
}
