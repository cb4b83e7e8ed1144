package main

import (
	"io"
	"net/http"
	"time"

	"shiftops/internal/metrics"
)

const timestampLayout = "2006-01-02 15:04:05"

// SetupWithMetrics attaches derived duration/delay/repeat values to a stored
// setup activity.
type SetupWithMetrics struct {
	SetupActivity
	Metrics metrics.SetupMetrics `json:"metrics"`
}

func handleListSetups(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, setter_id, setter_name, machine_id, item_code, work_order_id,
		setup_start_time, setup_end_time, first_piece_approval_time, notes, created_at
		FROM setup_activities WHERE 1=1`
	var args []interface{}
	if from := r.URL.Query().Get("from"); from != "" {
		query += " AND date(setup_start_time) >= ?"
		args = append(args, from)
	}
	if to := r.URL.Query().Get("to"); to != "" {
		query += " AND date(setup_start_time) <= ?"
		args = append(args, to)
	}
	if machine := r.URL.Query().Get("machine"); machine != "" {
		query += " AND machine_id = ?"
		args = append(args, machine)
	}
	if setter := r.URL.Query().Get("setter"); setter != "" {
		query += " AND setter_id = ?"
		args = append(args, setter)
	}
	query += " ORDER BY setup_start_time DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	var activities []SetupActivity
	for rows.Next() {
		var a SetupActivity
		if err := rows.Scan(&a.ID, &a.SetterID, &a.SetterName, &a.MachineID, &a.ItemCode, &a.WorkOrderID,
			&a.SetupStartTime, &a.SetupEndTime, &a.FirstPieceApproval, &a.Notes, &a.CreatedAt); err != nil {
			continue
		}
		activities = append(activities, a)
	}

	// Repeat flags need each (item, work order) partition in full, so they
	// are computed over every stored setup, not just the filtered page.
	repeats := repeatFlagsForAll()

	items := []SetupWithMetrics{}
	for _, a := range activities {
		m := metrics.ComputeSetup(setupInputOf(a))
		m.IsRepeat = repeats[a.ID]
		items = append(items, SetupWithMetrics{SetupActivity: a, Metrics: m})
	}
	jsonResp(w, items)
}

func handleGetSetup(w http.ResponseWriter, r *http.Request, id string) {
	a, err := loadSetup(id)
	if err != nil {
		jsonErr(w, "not found", 404)
		return
	}
	m := metrics.ComputeSetup(setupInputOf(a))
	m.IsRepeat = repeatFlagsForAll()[a.ID]
	jsonResp(w, SetupWithMetrics{SetupActivity: a, Metrics: m})
}

func handleCreateSetup(w http.ResponseWriter, r *http.Request) {
	var a SetupActivity
	if err := decodeBody(r, &a); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "machine_id", a.MachineID)
	validateForeignKey(ve, "machine_id", "machines", a.MachineID)
	validateMaxLength(ve, "item_code", a.ItemCode, 100)
	validateMaxLength(ve, "notes", a.Notes, 10000)
	if a.SetupStartTime == "" {
		a.SetupStartTime = time.Now().Format(timestampLayout)
	} else if _, err := time.Parse(timestampLayout, a.SetupStartTime); err != nil {
		ve.Add("setup_start_time", "must be a timestamp (YYYY-MM-DD HH:MM:SS)")
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}

	username := getUsername(r)
	if a.SetterID == "" {
		a.SetterID = username
	}
	if a.SetterName == "" {
		a.SetterName = displayNameOf(a.SetterID)
	}
	a.ID = nextID("SU", "setup_activities", 4)

	_, err := db.Exec(`INSERT INTO setup_activities (id, setter_id, setter_name, machine_id,
		item_code, work_order_id, setup_start_time, notes) VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, a.SetterID, a.SetterName, a.MachineID, a.ItemCode, a.WorkOrderID, a.SetupStartTime, a.Notes)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}

	logAudit(username, AuditActionCreate, "setups", a.ID, "Started setup "+a.ID+" on "+a.MachineID)
	broadcast("setups", "create", a.ID)
	handleGetSetup(w, r, a.ID)
}

// handleEndSetup records the setup completion timestamp.
func handleEndSetup(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		SetupEndTime string `json:"setup_end_time"`
	}
	// An empty body means "ended now"; anything else must parse.
	if err := decodeBody(r, &req); err != nil && err != io.EOF {
		jsonErr(w, "invalid body", 400)
		return
	}
	if req.SetupEndTime == "" {
		req.SetupEndTime = time.Now().Format(timestampLayout)
	} else if _, err := time.Parse(timestampLayout, req.SetupEndTime); err != nil {
		jsonErr(w, "setup_end_time: must be a timestamp (YYYY-MM-DD HH:MM:SS)", 400)
		return
	}

	res, err := db.Exec("UPDATE setup_activities SET setup_end_time = ? WHERE id = ?", req.SetupEndTime, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "setups", id, "Setup "+id+" ended")
	broadcast("setups", "update", id)
	handleGetSetup(w, r, id)
}

// handleApproveFirstPiece records the first-piece approval timestamp. The
// store accepts an approval earlier than the setup end; the resulting
// negative delay is preserved downstream.
func handleApproveFirstPiece(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		ApprovalTime string `json:"first_piece_approval_time"`
	}
	// An empty body means "approved now"; anything else must parse.
	if err := decodeBody(r, &req); err != nil && err != io.EOF {
		jsonErr(w, "invalid body", 400)
		return
	}
	if req.ApprovalTime == "" {
		req.ApprovalTime = time.Now().Format(timestampLayout)
	} else if _, err := time.Parse(timestampLayout, req.ApprovalTime); err != nil {
		jsonErr(w, "first_piece_approval_time: must be a timestamp (YYYY-MM-DD HH:MM:SS)", 400)
		return
	}

	res, err := db.Exec("UPDATE setup_activities SET first_piece_approval_time = ? WHERE id = ?", req.ApprovalTime, id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "setups", id, "First piece approved for setup "+id)
	broadcast("setups", "update", id)
	handleGetSetup(w, r, id)
}

func handleDeleteSetup(w http.ResponseWriter, r *http.Request, id string) {
	res, err := db.Exec("DELETE FROM setup_activities WHERE id = ?", id)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		jsonErr(w, "not found", 404)
		return
	}
	logAudit(getUsername(r), AuditActionDelete, "setups", id, "Deleted setup "+id)
	broadcast("setups", "delete", id)
	jsonResp(w, map[string]string{"status": "deleted"})
}

func loadSetup(id string) (SetupActivity, error) {
	var a SetupActivity
	err := db.QueryRow(`SELECT id, setter_id, setter_name, machine_id, item_code, work_order_id,
		setup_start_time, setup_end_time, first_piece_approval_time, notes, created_at
		FROM setup_activities WHERE id = ?`, id).
		Scan(&a.ID, &a.SetterID, &a.SetterName, &a.MachineID, &a.ItemCode, &a.WorkOrderID,
			&a.SetupStartTime, &a.SetupEndTime, &a.FirstPieceApproval, &a.Notes, &a.CreatedAt)
	return a, err
}

// loadAllSetups returns every stored setup activity, time-ordered.
func loadAllSetups() []SetupActivity {
	rows, err := db.Query(`SELECT id, setter_id, setter_name, machine_id, item_code, work_order_id,
		setup_start_time, setup_end_time, first_piece_approval_time, notes, created_at
		FROM setup_activities ORDER BY setup_start_time`)
	if err != nil {
		return nil
	}
	defer rows.Close()
	var out []SetupActivity
	for rows.Next() {
		var a SetupActivity
		if err := rows.Scan(&a.ID, &a.SetterID, &a.SetterName, &a.MachineID, &a.ItemCode, &a.WorkOrderID,
			&a.SetupStartTime, &a.SetupEndTime, &a.FirstPieceApproval, &a.Notes, &a.CreatedAt); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

// setupInputOf converts a stored activity to the engine's input form.
func setupInputOf(a SetupActivity) metrics.SetupInput {
	in := metrics.SetupInput{
		ID:          a.ID,
		SetterID:    a.SetterID,
		SetterName:  a.SetterName,
		MachineID:   a.MachineID,
		ItemCode:    a.ItemCode,
		WorkOrderID: a.WorkOrderID,
	}
	in.Start, _ = time.Parse(timestampLayout, a.SetupStartTime)
	in.CreatedAt, _ = time.Parse(timestampLayout, a.CreatedAt)
	if a.SetupEndTime != nil {
		if t, err := time.Parse(timestampLayout, *a.SetupEndTime); err == nil {
			in.End = &t
		}
	}
	if a.FirstPieceApproval != nil {
		if t, err := time.Parse(timestampLayout, *a.FirstPieceApproval); err == nil {
			in.Approval = &t
		}
	}
	return in
}

// repeatFlagsForAll runs the repeat-fault detector over the complete ledger.
func repeatFlagsForAll() map[string]bool {
	all := loadAllSetups()
	inputs := make([]metrics.SetupInput, 0, len(all))
	for _, a := range all {
		inputs = append(inputs, setupInputOf(a))
	}
	window := time.Duration(serverConfig.RepeatWindowHrs * float64(time.Hour))
	return metrics.DetectRepeats(inputs, window)
}

func displayNameOf(username string) string {
	var name string
	db.QueryRow("SELECT COALESCE(display_name,'') FROM users WHERE username = ?", username).Scan(&name)
	if name == "" {
		return username
	}
	return name
}
