package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"shiftops/internal/metrics"
)

func TestShiftMetricsReport(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")
	seedWorkOrder(t, "WO1", "ITEM-100", 60)

	body := `{"machine_id":"M1","shift_label":"Day","shift_date":"2026-08-20",
		"shift_start_time":"08:00","shift_end_time":"16:00","work_order_id":"WO1","actual_qty":400,
		"rejection_breakdown":{"burr":10}}`
	w := httptest.NewRecorder()
	handleCreateShift(w, authedRequest("POST", "/api/v1/shifts", body, cookie))
	if w.Code != 200 {
		t.Fatalf("seed create failed: %d %s", w.Code, w.Body.String())
	}

	w2 := httptest.NewRecorder()
	handleReportShiftMetrics(w2, authedRequest("GET", "/api/v1/reports/shift-metrics?from=2026-08-20&to=2026-08-20", "", cookie))
	if w2.Code != 200 {
		t.Fatalf("report failed: %d", w2.Code)
	}
	var resp struct {
		Data []ShiftMetricsRow `json:"data"`
	}
	json.Unmarshal(w2.Body.Bytes(), &resp)
	if len(resp.Data) != 1 {
		t.Fatalf("got %d rows, want 1", len(resp.Data))
	}
	row := resp.Data[0]
	// 480 min runtime at 60 s per piece
	if row.TargetQty != 480 {
		t.Errorf("target = %d, want 480", row.TargetQty)
	}
	if row.OKQty != 390 {
		t.Errorf("ok qty = %d, want 390", row.OKQty)
	}
	if row.EfficiencyPct != 83.33 {
		t.Errorf("efficiency = %v, want 83.33", row.EfficiencyPct)
	}

	// Range excluding the entry yields an empty report, not an error.
	w3 := httptest.NewRecorder()
	handleReportShiftMetrics(w3, authedRequest("GET", "/api/v1/reports/shift-metrics?from=2026-08-21", "", cookie))
	json.Unmarshal(w3.Body.Bytes(), &resp)
	if len(resp.Data) != 0 {
		t.Errorf("got %d rows outside range, want 0", len(resp.Data))
	}
}

func TestSetterPerformanceReport(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")

	// alice: two clean 30-minute setups with 10-minute approval delays.
	insertSetup(t, "SU-1", "alice", "M1", "ITEM-1", "WO-1",
		"2026-08-20 08:00:00", strptr("2026-08-20 08:30:00"), strptr("2026-08-20 08:40:00"))
	insertSetup(t, "SU-2", "alice", "M1", "ITEM-2", "WO-2",
		"2026-08-20 10:00:00", strptr("2026-08-20 10:30:00"), strptr("2026-08-20 10:40:00"))
	// bob: one 60-minute setup and a repeat on the same item/WO.
	insertSetup(t, "SU-3", "bob", "M1", "ITEM-3", "WO-3",
		"2026-08-20 09:00:00", strptr("2026-08-20 10:00:00"), nil)
	insertSetup(t, "SU-4", "bob", "M1", "ITEM-3", "WO-3",
		"2026-08-20 15:00:00", strptr("2026-08-20 16:00:00"), nil)

	w := httptest.NewRecorder()
	handleReportSetterPerformance(w, authedRequest("GET",
		"/api/v1/reports/setter-performance?from=2026-08-20&to=2026-08-20", "", cookie))
	if w.Code != 200 {
		t.Fatalf("report failed: %d %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data SetterPerformanceReport `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	report := resp.Data

	if len(report.Setters) != 2 {
		t.Fatalf("got %d setters, want 2", len(report.Setters))
	}
	// alice: 30 + 0.5*10 + 0 = 35. bob: 60 + 0 + 10*50 = 560.
	if report.Setters[0].SetterID != "alice" || report.Setters[0].Rank != 1 {
		t.Errorf("rank 1 = %+v, want alice", report.Setters[0])
	}
	if report.Setters[0].EfficiencyScore != 35 {
		t.Errorf("alice score = %v, want 35", report.Setters[0].EfficiencyScore)
	}
	if report.Setters[1].EfficiencyScore != 560 {
		t.Errorf("bob score = %v, want 560", report.Setters[1].EfficiencyScore)
	}
	if report.Setters[1].RepeatSetupCount != 1 {
		t.Errorf("bob repeats = %d, want 1", report.Setters[1].RepeatSetupCount)
	}

	if report.Overall.TotalSetups != 4 || report.Overall.TotalSetters != 2 {
		t.Errorf("overall totals: %+v", report.Overall)
	}
	if report.Overall.BestPerformerID != "alice" {
		t.Errorf("best performer = %q, want alice", report.Overall.BestPerformerID)
	}
	// Weighted: (30+30+60+60)/4 = 45
	if report.Overall.AvgSetupDurationMinutes == nil || *report.Overall.AvgSetupDurationMinutes != 45 {
		t.Errorf("overall avg duration = %v, want 45", report.Overall.AvgSetupDurationMinutes)
	}
}

func TestSetterPerformancePeriods(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")
	// Wednesday 2026-08-19 and the following Monday
	insertSetup(t, "SU-1", "alice", "M1", "ITEM-1", "WO-1", "2026-08-19 08:00:00", nil, nil)
	insertSetup(t, "SU-2", "alice", "M1", "ITEM-2", "WO-2", "2026-08-24 08:00:00", nil, nil)

	var resp struct {
		Data SetterPerformanceReport `json:"data"`
	}

	// Weekly around the Wednesday covers Mon 17th to Sun 23rd: one setup.
	w := httptest.NewRecorder()
	handleReportSetterPerformance(w, authedRequest("GET",
		"/api/v1/reports/setter-performance?period=weekly&date=2026-08-19", "", cookie))
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data.From != "2026-08-17" || resp.Data.To != "2026-08-23" {
		t.Errorf("weekly range = %s..%s", resp.Data.From, resp.Data.To)
	}
	if resp.Data.Overall.TotalSetups != 1 {
		t.Errorf("weekly setups = %d, want 1", resp.Data.Overall.TotalSetups)
	}

	// Monthly covers both.
	w2 := httptest.NewRecorder()
	handleReportSetterPerformance(w2, authedRequest("GET",
		"/api/v1/reports/setter-performance?period=monthly&date=2026-08-19", "", cookie))
	json.Unmarshal(w2.Body.Bytes(), &resp)
	if resp.Data.Overall.TotalSetups != 2 {
		t.Errorf("monthly setups = %d, want 2", resp.Data.Overall.TotalSetups)
	}

	// Unknown period is a client error.
	w3 := httptest.NewRecorder()
	handleReportSetterPerformance(w3, authedRequest("GET",
		"/api/v1/reports/setter-performance?period=fortnightly", "", cookie))
	if w3.Code != 400 {
		t.Errorf("bad period = %d, want 400", w3.Code)
	}

	// Malformed anchor date is a client error.
	w4 := httptest.NewRecorder()
	handleReportSetterPerformance(w4, authedRequest("GET",
		"/api/v1/reports/setter-performance?period=weekly&date=Aug-19", "", cookie))
	if w4.Code != 400 {
		t.Errorf("bad date = %d, want 400", w4.Code)
	}
}

func TestSetterPerformanceDefaultDailyWindow(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")

	// Create with no explicit start: the handler stamps the current
	// wall-clock time, exactly what an operator submitting live does.
	w := httptest.NewRecorder()
	handleCreateSetup(w, authedRequest("POST", "/api/v1/setups",
		`{"machine_id":"M1","item_code":"ITEM-1","work_order_id":"WO-1"}`, cookie))
	if w.Code != 200 {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}

	// No period/date parameters: today's daily window must contain the
	// setup just recorded, regardless of the server's zone offset.
	w2 := httptest.NewRecorder()
	handleReportSetterPerformance(w2, authedRequest("GET",
		"/api/v1/reports/setter-performance", "", cookie))
	if w2.Code != 200 {
		t.Fatalf("report failed: %d %s", w2.Code, w2.Body.String())
	}
	var resp struct {
		Data SetterPerformanceReport `json:"data"`
	}
	json.Unmarshal(w2.Body.Bytes(), &resp)
	if resp.Data.Overall.TotalSetups != 1 {
		t.Errorf("default daily report has %d setups, want 1 (window %s..%s)",
			resp.Data.Overall.TotalSetups, resp.Data.From, resp.Data.To)
	}
	if resp.Data.From != time.Now().Format("2006-01-02") {
		t.Errorf("default window starts %s, want today", resp.Data.From)
	}
}

func TestReportFormulas(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	w := httptest.NewRecorder()
	handleReportFormulas(w, authedRequest("GET", "/api/v1/reports/formulas", "", cookie))
	if w.Code != 200 {
		t.Fatalf("formulas failed: %d", w.Code)
	}
	var resp struct {
		Data map[string]string `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	for _, key := range []string{"shift_duration", "runtime", "target", "efficiency_score"} {
		if resp.Data[key] == "" {
			t.Errorf("formula %q missing", key)
		}
	}
	if resp.Data["efficiency_score"] != metrics.FormulaEfficiencyScore {
		t.Errorf("efficiency formula = %q", resp.Data["efficiency_score"])
	}
}
