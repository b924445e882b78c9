package engine

import "glowing-telegram/internal/domain"

// TrendUpdate is the outcome of feeding one snapshot through the trend
// tracker: the direction to commit and, when a prior direction existed and
// differs, the transition to consider alerting on.
type TrendUpdate struct {
	Direction    domain.TrendDirection
	Transitioned bool
	From         domain.TrendDirection
}

// UpdateTrend derives the new direction from MACD polarity and compares it
// against the previously persisted one. A first observation never counts as
// a transition; a move between any two distinct known directions does,
// including into or out of FLAT.
func UpdateTrend(prior domain.TrendDirection, snap domain.IndicatorSnapshot) TrendUpdate {
	dir := domain.TrendFromMACD(snap.MACDLine, snap.MACDSignal)
	return TrendUpdate{
		Direction:    dir,
		Transitioned: prior != domain.TrendUnknown && prior != dir,
		From:         prior,
	}
}
