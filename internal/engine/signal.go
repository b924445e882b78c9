package engine

import "glowing-telegram/internal/domain"

// DetectBuy decides whether the H1 snapshot triggers a buy signal.
//
// The MACD cross is edge-triggered: the H1 direction must be UP now and must
// not have been UP on the previous H1 candle, so a market that stays bullish
// fires once on the crossing candle and then goes quiet. The prior direction
// comes from the persisted H1 trend history rather than a separate field.
// When no prior H1 direction exists (first observation, state reset) a
// current UP counts as a cross: a duplicate alert after state loss is
// preferred over a missed one.
//
// The signal additionally requires an oversold H1 RSI and an UP confirmed
// D1 trend; an unknown D1 trend never confirms.
func DetectBuy(h1 domain.IndicatorSnapshot, priorH1, confirmedD1 domain.TrendDirection, rsiThreshold float64) bool {
	if confirmedD1 != domain.TrendUp {
		return false
	}
	if h1.RSI >= rsiThreshold {
		return false
	}
	return domain.TrendFromMACD(h1.MACDLine, h1.MACDSignal) == domain.TrendUp && priorH1 != domain.TrendUp
}

// DetectOpportunity is the softer level-triggered cousin of DetectBuy:
// moderately oversold, MACD currently positive, and a D1 trend that is not
// outright DOWN. Repetition is bounded by its own cooldown, not by edge
// detection.
func DetectOpportunity(h1 domain.IndicatorSnapshot, confirmedD1 domain.TrendDirection, rsiThreshold float64) bool {
	if confirmedD1 == domain.TrendDown {
		return false
	}
	if h1.RSI >= rsiThreshold {
		return false
	}
	return domain.TrendFromMACD(h1.MACDLine, h1.MACDSignal) == domain.TrendUp
}
