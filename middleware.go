package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"shiftops/internal/response"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxRole   contextKey = "role"
)

func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		// Exempt paths
		if path == "/" ||
			path == "/auth/login" ||
			path == "/auth/logout" ||
			path == "/auth/me" ||
			path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie("shiftops_session")
		if err != nil {
			unauthorized(w)
			return
		}

		var userID int
		var role string
		var active int
		err = db.QueryRow(`SELECT s.user_id, u.role, u.active FROM sessions s JOIN users u ON s.user_id = u.id
			WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP`, cookie.Value).Scan(&userID, &role, &active)
		if err != nil {
			unauthorized(w)
			return
		}

		if active == 0 {
			response.ErrCode(w, "Account deactivated", "FORBIDDEN", 403)
			return
		}

		// Sliding window: extend session expiry on each authenticated request
		newExpiry := time.Now().Add(time.Duration(serverConfig.SessionTTLHours) * time.Hour)
		db.Exec("UPDATE sessions SET expires_at = ? WHERE token = ?",
			newExpiry.Format("2006-01-02 15:04:05"), cookie.Value)

		http.SetCookie(w, &http.Cookie{
			Name:     "shiftops_session",
			Value:    cookie.Value,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  newExpiry,
		})

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxRole, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	response.ErrCode(w, "Unauthorized", "UNAUTHORIZED", 401)
}

// requireRBAC enforces role-based access control on /api/v1/ routes using
// the permission cache.
func requireRBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !strings.HasPrefix(path, "/api/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		role, _ := r.Context().Value(ctxRole).(string)
		if role == "admin" {
			next.ServeHTTP(w, r)
			return
		}

		apiPath := strings.TrimPrefix(path, "/api/v1/")
		apiPath = strings.TrimSuffix(apiPath, "/")
		module, action := mapAPIPathToPermission(apiPath, r.Method)
		if module == "" {
			next.ServeHTTP(w, r)
			return
		}

		if !HasPermission(role, module, action) {
			response.ErrCode(w, "Insufficient permissions", "FORBIDDEN", 403)
			return
		}
		next.ServeHTTP(w, r)
	})
}
