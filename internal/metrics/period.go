package metrics

import "time"

// PeriodKind selects a calendar bucketing for setter performance reports.
type PeriodKind string

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
)

// PeriodRange returns the inclusive [from, to] bounds of the calendar period
// containing anchor. Weeks start on Monday. Bounds are explicit immutable
// query parameters; callers must not derive them from ambient UI state.
func PeriodRange(kind PeriodKind, anchor time.Time) (time.Time, time.Time) {
	loc := anchor.Location()
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, loc)

	switch kind {
	case PeriodWeekly:
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday closes the week
		}
		from := day.AddDate(0, 0, -(weekday - 1))
		return from, from.AddDate(0, 0, 7).Add(-time.Nanosecond)
	case PeriodMonthly:
		from := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, loc)
		return from, from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		return day, day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
}

// Formula disclosure strings shown verbatim in the UI. These must match the
// computations in this package exactly.
const (
	FormulaShiftDuration   = "shift duration = end − start"
	FormulaRuntime         = "runtime = gross − downtime"
	FormulaTarget          = "target = runtime×60 ÷ cycle time"
	FormulaEfficiencyScore = "efficiency score = avg setup + 0.5×avg delay + 10×repeat%"
)

// Formulas returns the disclosure strings keyed by metric name.
func Formulas() map[string]string {
	return map[string]string{
		"shift_duration":   FormulaShiftDuration,
		"runtime":          FormulaRuntime,
		"target":           FormulaTarget,
		"efficiency_score": FormulaEfficiencyScore,
	}
}
