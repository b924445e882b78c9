package engine

import (
	"time"

	"glowing-telegram/internal/domain"
)

// Composition of event records from decided occurrences. All composers are
// pure: identical inputs yield identical events, which keeps the engine
// deterministic under test.

func composeBuy(h1 domain.IndicatorSnapshot, d1 domain.TrendDirection, now time.Time) domain.Event {
	return domain.Event{
		Kind:      domain.EventBuySignal,
		Symbol:    h1.Symbol,
		Timeframe: domain.TimeframeH1,
		Price:     h1.Close,
		RSI:       h1.RSI,
		MACDLine:  h1.MACDLine,
		D1Trend:   d1,
		ChangePct: h1.ChangePct(),
		At:        now,
	}
}

func composeOpportunity(h1 domain.IndicatorSnapshot, d1 domain.TrendDirection, now time.Time) domain.Event {
	e := composeBuy(h1, d1, now)
	e.Kind = domain.EventOpportunity
	return e
}

func composeTrendChange(snap domain.IndicatorSnapshot, from, to domain.TrendDirection, now time.Time) domain.Event {
	return domain.Event{
		Kind:      domain.EventTrendChange,
		Symbol:    snap.Symbol,
		Timeframe: snap.Timeframe,
		Price:     snap.Close,
		From:      from,
		To:        to,
		ChangePct: snap.ChangePct(),
		At:        now,
	}
}

func composeDailyReport(rows []domain.ReportRow, now time.Time) domain.Event {
	return domain.Event{
		Kind: domain.EventDailyReport,
		Rows: rows,
		At:   now,
	}
}

func composeHeartbeat(now time.Time) domain.Event {
	return domain.Event{Kind: domain.EventHeartbeat, At: now}
}
