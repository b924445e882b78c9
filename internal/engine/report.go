package engine

import "time"

// ShouldReport decides whether the daily summary window has been entered for
// the first time today. The window is wider than a single minute to absorb
// scheduler dispatch jitter; the gate only checks containment and the
// persisted date, it does not care why the window is wide.
//
// lastReportDate is a "2006-01-02" date in loc, or empty when no report was
// ever sent. windowOpen and windowClose are offsets from local midnight.
func ShouldReport(now time.Time, lastReportDate string, loc *time.Location, windowOpen, windowClose time.Duration) bool {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	offset := local.Sub(midnight)
	if offset < windowOpen || offset > windowClose {
		return false
	}
	return lastReportDate != local.Format("2006-01-02")
}

// ReportDate formats now as the calendar date the gate compares against.
func ReportDate(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}
