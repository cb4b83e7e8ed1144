package main

import (
	"net/http"
	"time"

	"shiftops/internal/metrics"
)

// ShiftMetricsRow is one line of the shift performance report.
type ShiftMetricsRow struct {
	EntryID       string  `json:"entry_id"`
	Plant         string  `json:"plant"`
	ShiftDate     string  `json:"shift_date"`
	ShiftLabel    string  `json:"shift_label"`
	MachineID     string  `json:"machine_id"`
	RuntimeMin    int     `json:"runtime_minutes"`
	TargetQty     int     `json:"target_qty"`
	ActualQty     int     `json:"actual_qty"`
	RejectedQty   int     `json:"rejected_qty"`
	OKQty         int     `json:"ok_qty"`
	EfficiencyPct float64 `json:"efficiency_pct"`
}

// handleReportShiftMetrics derives per-shift production metrics for a date
// range and optional machine filter.
func handleReportShiftMetrics(w http.ResponseWriter, r *http.Request) {
	rows, err := shiftMetricsRows(r)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	jsonResp(w, rows)
}

func shiftMetricsRows(r *http.Request) ([]ShiftMetricsRow, error) {
	query := `SELECT s.id, s.plant, s.shift_label, s.machine_id, s.setup_number, s.shift_date,
		s.shift_start_time, s.shift_end_time, s.work_order_id, s.actual_qty, s.rework_qty,
		s.rejection_breakdown, s.override_value, s.override_reason, s.override_approved_by,
		s.submitted_by, s.created_at, COALESCE(w.cycle_time_seconds, 0)
		FROM shift_entries s LEFT JOIN work_orders w ON s.work_order_id = w.id WHERE 1=1`
	var args []interface{}
	if from := r.URL.Query().Get("from"); from != "" {
		query += " AND s.shift_date >= ?"
		args = append(args, from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query += " AND s.shift_date <= ?"
		args = append(args, to)
	}
	if machine := r.URL.Query().Get("machine"); machine != "" {
		query += " AND s.machine_id = ?"
		args = append(args, machine)
	}
	query += " ORDER BY s.shift_date, s.machine_id, s.shift_label"

	dbRows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()

	authorized := overrideAuthorizedRoles()
	out := []ShiftMetricsRow{}
	for dbRows.Next() {
		e, cycle, err := scanShiftEntry(dbRows)
		if err != nil {
			continue
		}
		m := withShiftMetrics(e, cycle, authorized).Metrics
		out = append(out, ShiftMetricsRow{
			EntryID:       e.ID,
			Plant:         e.Plant,
			ShiftDate:     e.ShiftDate,
			ShiftLabel:    e.ShiftLabel,
			MachineID:     e.MachineID,
			RuntimeMin:    m.ActualRuntimeMinutes,
			TargetQty:     m.EffectiveTargetQty,
			ActualQty:     e.ActualQty,
			RejectedQty:   m.TotalRejectionQty,
			OKQty:         m.OKQty,
			EfficiencyPct: m.EfficiencyPct,
		})
	}
	return out, nil
}

// SetterPerformanceReport is the ranked summary plus the plant-wide fold.
type SetterPerformanceReport struct {
	From    string                  `json:"from"`
	To      string                  `json:"to"`
	Setters []metrics.SetterSummary `json:"setters"`
	Overall metrics.OverallSummary  `json:"overall"`
}

// handleReportSetterPerformance aggregates setup metrics per setter over a
// calendar period (daily/weekly/monthly around an anchor date) or an explicit
// from/to range.
func handleReportSetterPerformance(w http.ResponseWriter, r *http.Request) {
	from, to, err := reportRange(r)
	if err != nil {
		jsonErr(w, err.Error(), 400)
		return
	}
	report := setterPerformance(from, to)
	jsonResp(w, report)
}

func setterPerformance(from, to time.Time) SetterPerformanceReport {
	records := setterRecords()
	summaries := metrics.Aggregate(records, from, to)
	return SetterPerformanceReport{
		From:    from.Format("2006-01-02"),
		To:      to.Format("2006-01-02"),
		Setters: summaries,
		Overall: metrics.Overall(summaries),
	}
}

// setterRecords builds the complete annotated ledger the aggregator consumes:
// every stored setup with derived metrics and repeat flags applied. The full
// set keeps repeat partitions intact; Aggregate filters by range itself.
func setterRecords() []metrics.SetupRecord {
	all := loadAllSetups()
	inputs := make([]metrics.SetupInput, 0, len(all))
	for _, a := range all {
		inputs = append(inputs, setupInputOf(a))
	}
	window := time.Duration(serverConfig.RepeatWindowHrs * float64(time.Hour))
	repeats := metrics.DetectRepeats(inputs, window)

	records := make([]metrics.SetupRecord, 0, len(inputs))
	for _, in := range inputs {
		m := metrics.ComputeSetup(in)
		m.IsRepeat = repeats[in.ID]
		records = append(records, metrics.SetupRecord{Input: in, Metrics: m})
	}
	return records
}

// reportRange resolves the report window from explicit from/to parameters or
// a period kind with an optional anchor date (default today).
func reportRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	if fromStr := q.Get("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("from")
		}
		toStr := q.Get("to")
		if toStr == "" {
			toStr = fromStr
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("to")
		}
		// Inclusive upper bound: end of the "to" day.
		return from, to.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
	}

	// Setup timestamps are stored as naive wall-clock strings and parsed
	// without a zone, so the default anchor must live in the same frame.
	// Round-tripping today's date through its string form strips the
	// server's zone offset.
	anchor, _ := time.Parse("2006-01-02", time.Now().Format("2006-01-02"))
	if dateStr := q.Get("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDate("date")
		}
		anchor = parsed
	}

	kind := metrics.PeriodKind(q.Get("period"))
	switch kind {
	case metrics.PeriodDaily, metrics.PeriodWeekly, metrics.PeriodMonthly:
	case "":
		kind = metrics.PeriodDaily
	default:
		return time.Time{}, time.Time{}, errInvalidPeriod
	}
	from, to := metrics.PeriodRange(kind, anchor)
	return from, to, nil
}

type reportRangeError string

func (e reportRangeError) Error() string { return string(e) }

const errInvalidPeriod = reportRangeError("period must be one of: daily, weekly, monthly")

func errInvalidDate(field string) error {
	return reportRangeError(field + " must be a valid date (YYYY-MM-DD)")
}

// handleReportFormulas discloses the exact metric formulas the engine uses.
func handleReportFormulas(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, metrics.Formulas())
}
