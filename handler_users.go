package main

import (
	"net/http"

	"shiftops/internal/auth"
)

func handleListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query(`SELECT id, username, COALESCE(display_name,''), role, active,
		COALESCE(last_login,''), created_at FROM users ORDER BY username`)
	if err != nil {
		jsonErr(w, err.Error(), 500)
		return
	}
	defer rows.Close()

	items := []User{}
	for rows.Next() {
		var u User
		var active int
		rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Role, &active, &u.LastLogin, &u.CreatedAt)
		u.Active = active != 0
		items = append(items, u)
	}
	jsonResp(w, items)
}

type createUserRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	ve := &ValidationErrors{}
	requireField(ve, "username", req.Username)
	validateMaxLength(ve, "username", req.Username, 100)
	validateEnum(ve, "role", req.Role, validUserRoles)
	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		ve.Add("password", err.Error())
	}
	if ve.HasErrors() {
		jsonErr(w, ve.Error(), 400)
		return
	}
	if req.Role == "" {
		req.Role = "operator"
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonErr(w, "failed to hash password", 500)
		return
	}

	res, err := db.Exec("INSERT INTO users (username, password_hash, display_name, role) VALUES (?, ?, ?, ?)",
		req.Username, hash, req.DisplayName, req.Role)
	if err != nil {
		jsonErr(w, "username already exists", 409)
		return
	}
	id, _ := res.LastInsertId()

	logAudit(getUsername(r), AuditActionCreate, "users", req.Username, "Created user "+req.Username+" with role "+req.Role)
	broadcast("users", "create", id)
	jsonResp(w, UserResponse{ID: int(id), Username: req.Username, DisplayName: req.DisplayName, Role: req.Role})
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Role        *string `json:"role"`
	Active      *bool   `json:"active"`
}

func handleUpdateUser(w http.ResponseWriter, r *http.Request, id string) {
	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, "invalid body", 400)
		return
	}

	var username string
	if err := db.QueryRow("SELECT username FROM users WHERE id = ?", id).Scan(&username); err != nil {
		jsonErr(w, "not found", 404)
		return
	}

	if req.Role != nil {
		ve := &ValidationErrors{}
		validateEnum(ve, "role", *req.Role, validUserRoles)
		if ve.HasErrors() {
			jsonErr(w, ve.Error(), 400)
			return
		}
		db.Exec("UPDATE users SET role = ? WHERE id = ?", *req.Role, id)
	}
	if req.DisplayName != nil {
		db.Exec("UPDATE users SET display_name = ? WHERE id = ?", *req.DisplayName, id)
	}
	if req.Active != nil {
		active := 0
		if *req.Active {
			active = 1
		}
		db.Exec("UPDATE users SET active = ? WHERE id = ?", active, id)
	}

	logAudit(getUsername(r), AuditActionUpdate, "users", id, "Updated user "+username)
	broadcast("users", "update", id)
	jsonResp(w, map[string]string{"status": "ok"})
}
