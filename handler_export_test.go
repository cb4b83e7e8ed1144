package main

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExportShiftsCSV(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")
	seedWorkOrder(t, "WO1", "ITEM-100", 30)

	body := `{"machine_id":"M1","plant":"Plant-1","shift_label":"Day","shift_date":"2026-08-20",
		"shift_start_time":"08:00","shift_end_time":"16:00","work_order_id":"WO1","actual_qty":800}`
	w := httptest.NewRecorder()
	handleCreateShift(w, authedRequest("POST", "/api/v1/shifts", body, cookie))
	if w.Code != 200 {
		t.Fatalf("seed create failed: %d %s", w.Code, w.Body.String())
	}

	w2 := httptest.NewRecorder()
	handleExportShifts(w2, authedRequest("GET", "/api/v1/shifts/export?format=csv", "", cookie))
	if w2.Code != 200 {
		t.Fatalf("export failed: %d", w2.Code)
	}
	if ct := w2.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}

	lines := strings.Split(strings.TrimSpace(w2.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d csv lines, want 2", len(lines))
	}
	wantHeader := "Plant,Date,Shift,Machine,Runtime (min),Target,Actual,Rejected,OK Qty,Efficiency %"
	if strings.TrimSpace(lines[0]) != wantHeader {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Plant-1,2026-08-20,Day,M1,480,960,800") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestExportShiftsExcel(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")

	w := httptest.NewRecorder()
	handleExportShifts(w, authedRequest("GET", "/api/v1/shifts/export?format=xlsx", "", cookie))
	if w.Code != 200 {
		t.Fatalf("export failed: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type = %q", ct)
	}
	// XLSX is a zip container
	if b := w.Body.Bytes(); len(b) < 4 || b[0] != 'P' || b[1] != 'K' {
		t.Error("body is not a zip archive")
	}
}

func TestExportSetterPerformanceCSV(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")
	insertSetup(t, "SU-1", "alice", "M1", "ITEM-1", "WO-1",
		"2026-08-20 08:00:00", strptr("2026-08-20 08:30:00"), nil)
	// No end recorded: duration fields export blank, never zero.
	insertSetup(t, "SU-2", "bob", "M1", "ITEM-2", "WO-2", "2026-08-20 09:00:00", nil, nil)

	w := httptest.NewRecorder()
	handleExportSetterPerformance(w, authedRequest("GET",
		"/api/v1/reports/setter-performance/export?from=2026-08-20&to=2026-08-20", "", cookie))
	if w.Code != 200 {
		t.Fatalf("export failed: %d %s", w.Code, w.Body.String())
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d csv lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Setter,Total Setups,") {
		t.Errorf("header = %q", lines[0])
	}
	// bob has no duration samples, so his score folds to 0 and he sorts first.
	if !strings.Contains(lines[1], "bob,1,,,,") {
		t.Errorf("bob row should have blank durations: %q", lines[1])
	}
	if !strings.Contains(lines[2], "alice,1,30.0") {
		t.Errorf("alice row = %q", lines[2])
	}
}

func TestExportRecordsAuditTrail(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	cookie := loginAdmin(t)
	seedMachine(t, "M1")

	w := httptest.NewRecorder()
	handleExportShifts(w, authedRequest("GET", "/api/v1/shifts/export", "", cookie))
	if w.Code != 200 {
		t.Fatalf("export failed: %d", w.Code)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM audit_log WHERE action = ? AND module = 'shifts'", AuditActionExport).Scan(&count)
	if count != 1 {
		t.Errorf("export audit rows = %d, want 1", count)
	}
}
