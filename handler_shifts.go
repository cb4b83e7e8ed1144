package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"shiftops/internal/metrics"
)

// ShiftEntryWithMetrics attaches freshly derived metrics to a stored entry.
// Metrics are never persisted; every response recomputes them.
type ShiftEntryWithMetrics struct {
	ShiftEntry
	Metrics metrics.ShiftMetrics `json:"metrics"`
}

func handleListShifts(w http.ResponseWriter, r *http.Request) {
	query := `SELECT s.id, s.plant, s.shift_label, s.machine_id, s.setup_number, s.shift_date,
		s.shift_start_time, s.shift_end_time, s.work_order_id, s.actual_qty, s.rework_qty,
		s.rejection_breakdown, s.override_value, s.override_reason, s.override_approved_by,
		s.submitted_by, s.created_at, COALESCE(w.cycle_time_seconds, 0)
		FROM shift_entries s LEFT JOIN work_orders w ON s.work_order_id = w.id WHERE 1=1`
	var args []interface{}

	// Filters arrive as explicit query parameters, never ambient state.
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
	query += " ORDER BY s.shift_date DESC, s.shift_label, s.machine_id"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	authorized := overrideAuthorizedRoles()
	items := []ShiftEntryWithMetrics{}
	for rows.Next() {
		e, cycle, err := scanShiftEntry(rows)
		if err != nil {
			continue
		}
		items = append(items, withShiftMetrics(e, cycle, authorized))
	}
	jsonResp(w, items)
}

func handleGetShift(w http.ResponseWriter, r *http.Request, id string) {
	e, cycle, err := loadShiftEntry(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	jsonResp(w, withShiftMetrics(e, cycle, overrideAuthorizedRoles()))
}

func handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var e ShiftEntry
	if err := decodeBody(r, &e); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "machine_id", e.MachineID)
	validateForeignKey(ve, "machine_id", "machines", e.MachineID)
	validateEnum(ve, "shift_label", e.ShiftLabel, validShiftLabels)
	if e.ShiftLabel == "" {
		ve.Add("shift_label", "is required")
	}
	requireField(ve, "shift_date", e.ShiftDate)
	validateDate(ve, "shift_date", e.ShiftDate)
	validateClock(ve, "shift_start_time", e.ShiftStartTime)
	validateClock(ve, "shift_end_time", e.ShiftEndTime)
	validateNonNegativeInt(ve, "actual_qty", e.ActualQty)
	validateNonNegativeInt(ve, "rework_qty", e.ReworkQty)
	validateDowntime(ve, e.Downtime)
	validateRejections(ve, e.RejectionBreakdown)
	validateOverride(ve, e.TargetOverride)
	if e.WorkOrderID != "" {
		validateForeignKey(ve, "work_order_id", "work_orders", e.WorkOrderID)
	}

	// An override from a role outside the authorized set is surfaced here;
	// the engine itself would only ignore it silently.
	role, _ := r.Context().Value(ctxRole).(string)
	if e.TargetOverride != nil && !overrideAuthorizedRoles()[role] {
		ve.Add("target_override", "role "+role+" is not authorized to override targets")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	e.ID = nextID("SH", "shift_entries", 4)
	e.SubmittedBy = getUsername(r)
	if e.TargetOverride != nil {
		e.TargetOverride.ApprovedBy = e.SubmittedBy
	}
	rejJSON, _ := json.Marshal(normalizedRejections(e.RejectionBreakdown))

	tx, err := db.Begin()
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer tx.Rollback()

	var ovVal interface{}
	var ovReason, ovBy interface{}
	if e.TargetOverride != nil {
		ovVal, ovReason, ovBy = e.TargetOverride.Value, e.TargetOverride.Reason, e.TargetOverride.ApprovedBy
	}
	_, err = tx.Exec(`INSERT INTO shift_entries (id, plant, shift_label, machine_id, setup_number,
		shift_date, shift_start_time, shift_end_time, work_order_id, actual_qty, rework_qty,
		rejection_breakdown, override_value, override_reason, override_approved_by, submitted_by)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.ID, e.Plant, e.ShiftLabel, e.MachineID, e.SetupNumber, e.ShiftDate,
		e.ShiftStartTime, e.ShiftEndTime, e.WorkOrderID, e.ActualQty, e.ReworkQty,
		string(rejJSON), ovVal, ovReason, ovBy, e.SubmittedBy)
	if err != nil {
		// UNIQUE(machine, shift, setup, date): duplicates are a store-level
		// conflict, not an engine concern.
		if strings.Contains(err.Error(), "UNIQUE") {
			jsonErr(w, "a shift entry already exists for this machine, shift, setup and date", 409)
			return
		}
		jsonErr(w, err.Error(), 500)
		return
	}

	for _, ev := range e.Downtime {
		if _, err := tx.Exec("INSERT INTO downtime_events (shift_entry_id, reason, duration_minutes, remark) VALUES (?,?,?,?)",
			e.ID, ev.Reason, ev.DurationMinutes, ev.Remark); err != nil {
			jsonErr(w, err.Error(), 500)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(e.SubmittedBy, AuditActionCreate, "shifts", e.ID, "Recorded "+e.ShiftLabel+" shift on "+e.MachineID+" for "+e.ShiftDate)
	if e.TargetOverride != nil {
		logAudit(e.SubmittedBy, AuditActionOverride, "shifts", e.ID, "Target overridden: "+e.TargetOverride.Reason)
	}
	broadcast("shifts", "create", e.ID)
	handleGetShift(w, r, e.ID)
}

func handleDeleteShift(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("DELETE FROM shift_entries WHERE id = ?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUsername(r), AuditActionDelete, "shifts", id, "Deleted shift entry "+id)
	broadcast("shifts", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}

// scanShiftEntry reads one joined row; rows must match the column list in
// handleListShifts.
func scanShiftEntry(rows interface {
	Scan(dest ...interface{}) error
}) (ShiftEntry, float64, error) {
	var e ShiftEntry
	var rejJSON string
	var ovVal sql.NullInt64
	var ovReason, ovBy sql.NullString
	var cycle float64
	err := rows.Scan(&e.ID, &e.Plant, &e.ShiftLabel, &e.MachineID, &e.SetupNumber, &e.ShiftDate,
		&e.ShiftStartTime, &e.ShiftEndTime, &e.WorkOrderID, &e.ActualQty, &e.ReworkQty,
		&rejJSON, &ovVal, &ovReason, &ovBy, &e.SubmittedBy, &e.CreatedAt, &cycle)
	if err != nil {
		return e, 0, err
	}
	json.Unmarshal([]byte(rejJSON), &e.RejectionBreakdown)
	if ovVal.Valid {
		e.TargetOverride = &TargetOverride{
			Value:      int(ovVal.Int64),
			Reason:     ovReason.String,
			ApprovedBy: ovBy.String,
		}
	}
	e.Downtime = loadDowntime(e.ID)
	return e, cycle, nil
}

func loadShiftEntry(id string) (ShiftEntry, float64, error) {
	row := db.QueryRow(`SELECT s.id, s.plant, s.shift_label, s.machine_id, s.setup_number, s.shift_date,
		s.shift_start_time, s.shift_end_time, s.work_order_id, s.actual_qty, s.rework_qty,
		s.rejection_breakdown, s.override_value, s.override_reason, s.override_approved_by,
		s.submitted_by, s.created_at, COALESCE(w.cycle_time_seconds, 0)
		FROM shift_entries s LEFT JOIN work_orders w ON s.work_order_id = w.id WHERE s.id = ?`, id)
	return scanShiftEntry(row)
}

func loadDowntime(shiftEntryID string) []DowntimeEvent {
	rows, err := db.Query("SELECT id, reason, duration_minutes, remark FROM downtime_events WHERE shift_entry_id = ? ORDER BY id", shiftEntryID)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var events []DowntimeEvent
	for rows.Next() {
		var ev DowntimeEvent
		rows.Scan(&ev.ID, &ev.Reason, &ev.DurationMinutes, &ev.Remark)
		events = append(events, ev)
	}
	return events
}

// withShiftMetrics derives metrics for one stored entry. The override's
// actor role is resolved from the approving user at evaluation time.
func withShiftMetrics(e ShiftEntry, cycleTimeSeconds float64, authorized metrics.RoleSet) ShiftEntryWithMetrics {
	in := metrics.ShiftInput{
		ShiftStartTime:   e.ShiftStartTime,
		ShiftEndTime:     e.ShiftEndTime,
		ActualQty:        e.ActualQty,
		ReworkQty:        e.ReworkQty,
		Rejections:       e.RejectionBreakdown,
		CycleTimeSeconds: cycleTimeSeconds,
	}
	for _, ev := range e.Downtime {
		in.DowntimeMinutes = append(in.DowntimeMinutes, ev.DurationMinutes)
	}
	if ov := e.TargetOverride; ov != nil {
		in.Override = &metrics.Override{
			Value:     ov.Value,
			Reason:    ov.Reason,
			ActorRole: userRole(ov.ApprovedBy),
		}
	}
	return ShiftEntryWithMetrics{ShiftEntry: e, Metrics: metrics.ComputeShift(in, authorized)}
}

func userRole(username string) string {
	var role string
	db.QueryRow("SELECT role FROM users WHERE username = ?", username).Scan(&role)
	return role
}

// normalizedRejections fills every known cause key so the stored JSON always
// carries the full 10-key breakdown.
func normalizedRejections(breakdown map[string]int) map[string]int {
	out := make(map[string]int, len(validRejectionCauses))
	for _, cause := range validRejectionCauses {
		out[cause] = breakdown[cause]
	}
	return out
}
