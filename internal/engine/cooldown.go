package engine

import "time"

// CooldownState is the per-(asset, alert-kind) automaton: ARMED until an
// alert fires, COOLING until the configured interval has elapsed.
type CooldownState int

const (
	Armed CooldownState = iota
	Cooling
)

func (s CooldownState) String() string {
	if s == Cooling {
		return "cooling"
	}
	return "armed"
}

// CooldownStateAt derives the automaton state from the persisted last-fired
// timestamp. A zero timestamp means the alert never fired. Comparison is
// done on UTC instants so wall-clock timezone changes cannot shrink or
// stretch the window.
func CooldownStateAt(now, lastFired time.Time, cooldown time.Duration) CooldownState {
	if lastFired.IsZero() {
		return Armed
	}
	if now.UTC().Sub(lastFired.UTC()) >= cooldown {
		return Armed
	}
	return Cooling
}

// AllowAlert reports whether an alert of some kind may fire now. The caller
// owns the side effect: on true it must stamp the corresponding last-fired
// field in the same state transaction.
func AllowAlert(now, lastFired time.Time, cooldown time.Duration) bool {
	return CooldownStateAt(now, lastFired, cooldown) == Armed
}
