package audit

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"shiftops/internal/websocket"
)

// Action constants.
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionExport   = "EXPORT"
	ActionLogin    = "LOGIN"
	ActionLogout   = "LOGOUT"
	ActionOverride = "OVERRIDE"
)

// LogAudit records one audit row and broadcasts the change.
func LogAudit(db *sql.DB, hub *websocket.Hub, username, action, module, recordID, summary string) {
	_, err := db.Exec("INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, ?, ?)",
		username, action, module, recordID, summary)
	if err != nil {
		log.Printf("audit log error: %v", err)
	}
	if hub != nil {
		hub.BroadcastChange(module, strings.ToLower(action), recordID)
	}
}

// LogDataExport records an export event with format and row count.
func LogDataExport(db *sql.DB, username, module, format string, recordCount int) {
	summary := fmt.Sprintf("Exported %d %s rows as %s", recordCount, module, format)
	_, err := db.Exec("INSERT INTO audit_log (username, action, module, record_id, summary) VALUES (?, ?, ?, '', ?)",
		username, ActionExport, module, summary)
	if err != nil {
		log.Printf("audit export log error: %v", err)
	}
}

// GetUsername extracts the username from a session cookie, defaulting to
// "system" for unauthenticated internal calls.
func GetUsername(db *sql.DB, r *http.Request) string {
	cookie, err := r.Cookie("shiftops_session")
	if err != nil {
		return "system"
	}
	var username string
	err = db.QueryRow("SELECT u.username FROM users u JOIN sessions s ON u.id = s.user_id WHERE s.token = ?", cookie.Value).Scan(&username)
	if err != nil {
		return "system"
	}
	return username
}

// GetClientIP extracts the real client IP from the request (handles proxies).
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
