package main

import (
	"net/http"
	"strconv"

	"shiftops/internal/audit"
	"shiftops/internal/response"
)

// Audit action constant aliases.
const (
	AuditActionCreate   = audit.ActionCreate
	AuditActionUpdate   = audit.ActionUpdate
	AuditActionDelete   = audit.ActionDelete
	AuditActionExport   = audit.ActionExport
	AuditActionLogin    = audit.ActionLogin
	AuditActionLogout   = audit.ActionLogout
	AuditActionOverride = audit.ActionOverride
)

// Wrappers delegating to internal/audit, injecting the global db and hub.
func logAudit(username, action, module, recordID, summary string) {
	audit.LogAudit(db, wsHub, username, action, module, recordID, summary)
}

func logDataExport(username, module, format string, recordCount int) {
	audit.LogDataExport(db, username, module, format, recordCount)
}

func getUsername(r *http.Request) string {
	return audit.GetUsername(db, r)
}

// handleAuditLog returns recent audit entries, newest first.
func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	rows, err := db.Query(`SELECT id, username, action, module, record_id, summary, created_at
		FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		response.Err(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	type entry struct {
		ID        int    `json:"id"`
		Username  string `json:"username"`
		Action    string `json:"action"`
		Module    string `json:"module"`
		RecordID  string `json:"record_id"`
		Summary   string `json:"summary"`
		CreatedAt string `json:"created_at"`
	}
	items := []entry{}
	for rows.Next() {
		var e entry
		rows.Scan(&e.ID, &e.Username, &e.Action, &e.Module, &e.RecordID, &e.Summary, &e.CreatedAt)
		items = append(items, e)
	}
	response.JSONMeta(w, items, len(items), 1, limit)
}
