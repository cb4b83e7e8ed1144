// Package metrics derives shift-production and machine-setup performance
// numbers from raw records. Every function here is a pure transformation:
// no I/O, no shared state, same output for the same input. Handlers and
// exports must all go through this package so that no two screens can
// disagree on the same number.
package metrics

import (
	"math"
	"strconv"
	"strings"
)

const minutesPerDay = 1440

// ShiftInput is one shift's raw submission, already validated at the boundary.
type ShiftInput struct {
	ShiftStartTime   string // HH:MM
	ShiftEndTime     string // HH:MM
	DowntimeMinutes  []int
	ActualQty        int
	ReworkQty        int
	Rejections       map[string]int
	CycleTimeSeconds float64 // 0 when the work order carries no cycle time
	Override         *Override
}

// ShiftMetrics is the derived result. It has no identity of its own and is
// recomputed fresh on every evaluation.
type ShiftMetrics struct {
	ShiftDurationMinutes int     `json:"shift_duration_minutes"`
	TotalDowntimeMinutes int     `json:"total_downtime_minutes"`
	ActualRuntimeMinutes int     `json:"actual_runtime_minutes"`
	CalculatedTargetQty  int     `json:"calculated_target_qty"`
	EffectiveTargetQty   int     `json:"effective_target_qty"`
	TotalRejectionQty    int     `json:"total_rejection_qty"`
	OKQty                int     `json:"ok_qty"`
	EfficiencyPct        float64 `json:"efficiency_pct"`
	OverrideApplied      bool    `json:"override_applied"`
}

// ComputeShift converts a shift's raw inputs into derived production metrics.
// It is total: malformed time strings are a boundary precondition and parse
// to zero minutes rather than failing.
func ComputeShift(in ShiftInput, authorized RoleSet) ShiftMetrics {
	var m ShiftMetrics

	start := clockMinutes(in.ShiftStartTime)
	end := clockMinutes(in.ShiftEndTime)
	if end < start {
		// Overnight shift wraps past midnight.
		m.ShiftDurationMinutes = (minutesPerDay - start) + end
	} else {
		m.ShiftDurationMinutes = end - start
	}

	for _, d := range in.DowntimeMinutes {
		m.TotalDowntimeMinutes += d
	}

	m.ActualRuntimeMinutes = m.ShiftDurationMinutes - m.TotalDowntimeMinutes
	if m.ActualRuntimeMinutes < 0 {
		m.ActualRuntimeMinutes = 0
	}

	// Partial cycles never count as a unit of target output, hence floor.
	if in.CycleTimeSeconds > 0 {
		m.CalculatedTargetQty = int(math.Floor(float64(m.ActualRuntimeMinutes) * 60 / in.CycleTimeSeconds))
	}

	m.EffectiveTargetQty = ResolveTarget(m.CalculatedTargetQty, in.Override, authorized)
	m.OverrideApplied = overrideApplies(in.Override, authorized)

	for _, qty := range in.Rejections {
		m.TotalRejectionQty += qty
	}

	m.OKQty = in.ActualQty - m.TotalRejectionQty
	if m.OKQty < 0 {
		m.OKQty = 0
	}

	if m.EffectiveTargetQty > 0 {
		m.EfficiencyPct = round2(float64(in.ActualQty) / float64(m.EffectiveTargetQty) * 100)
	}

	return m
}

// clockMinutes converts an HH:MM time-of-day to minutes since midnight.
// Malformed input yields 0.
func clockMinutes(hhmm string) int {
	h, mm, ok := strings.Cut(hhmm, ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	mins, err := strconv.Atoi(mm)
	if err != nil {
		return 0
	}
	return hours*60 + mins
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
