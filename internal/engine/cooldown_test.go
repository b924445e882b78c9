package engine

import (
	"testing"
	"time"
)

func TestCooldownStateAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	if CooldownStateAt(now, time.Time{}, time.Hour) != Armed {
		t.Fatal("never-fired should be armed")
	}
	if CooldownStateAt(now, now.Add(-30*time.Minute), time.Hour) != Cooling {
		t.Fatal("inside window should be cooling")
	}
	if CooldownStateAt(now, now.Add(-time.Hour), time.Hour) != Armed {
		t.Fatal("exactly elapsed should re-arm")
	}
	if CooldownStateAt(now, now.Add(-2*time.Hour), time.Hour) != Armed {
		t.Fatal("past window should re-arm")
	}
}

func TestCooldownIsTimezoneAgnostic(t *testing.T) {
	t.Parallel()

	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	fired := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	// Same instant expressed in a different zone must not change the verdict.
	now := fired.Add(6 * time.Hour).In(rome)
	if !AllowAlert(now, fired.In(rome), 6*time.Hour) {
		t.Fatal("expected armed after exactly the cooldown interval")
	}
	if AllowAlert(now.Add(-time.Minute), fired, 6*time.Hour) {
		t.Fatal("expected cooling one minute short of the interval")
	}
}

func TestCooldownStateString(t *testing.T) {
	t.Parallel()

	if Armed.String() != "armed" || Cooling.String() != "cooling" {
		t.Fatalf("unexpected strings: %s %s", Armed, Cooling)
	}
}
