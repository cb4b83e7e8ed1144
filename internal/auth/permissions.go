package auth

import (
	"database/sql"
	"sync"
	"time"
)

// Permission modules correspond to major feature areas.
const (
	ModuleMachines   = "machines"
	ModuleWorkOrders = "work_orders"
	ModuleShifts     = "shifts"
	ModuleSetups     = "setups"
	ModuleReports    = "reports"
	ModuleAdmin      = "admin"
)

// Permission actions.
const (
	PermActionView     = "view"
	PermActionCreate   = "create"
	PermActionEdit     = "edit"
	PermActionDelete   = "delete"
	PermActionOverride = "override"
)

// AllModules lists every module.
var AllModules = []string{
	ModuleMachines, ModuleWorkOrders, ModuleShifts, ModuleSetups,
	ModuleReports, ModuleAdmin,
}

// AllActions lists every action.
var AllActions = []string{
	PermActionView, PermActionCreate, PermActionEdit, PermActionDelete, PermActionOverride,
}

// PermissionEntry represents a single permission assignment.
type PermissionEntry struct {
	ID     int    `json:"id"`
	Role   string `json:"role"`
	Module string `json:"module"`
	Action string `json:"action"`
}

// PermCache caches role→permissions for fast middleware lookups.
type PermCache struct {
	sync.RWMutex
	data    map[string]map[string]map[string]bool // role → module → action → true
	updated time.Time
}

// NewPermCache creates a new empty permission cache.
func NewPermCache() *PermCache {
	return &PermCache{data: make(map[string]map[string]map[string]bool)}
}

// Refresh loads all role_permissions into the in-memory cache.
func (pc *PermCache) Refresh(db *sql.DB) error {
	rows, err := db.Query("SELECT role, module, action FROM role_permissions")
	if err != nil {
		return err
	}
	defer rows.Close()

	data := make(map[string]map[string]map[string]bool)
	for rows.Next() {
		var role, module, action string
		if err := rows.Scan(&role, &module, &action); err != nil {
			continue
		}
		if data[role] == nil {
			data[role] = make(map[string]map[string]bool)
		}
		if data[role][module] == nil {
			data[role][module] = make(map[string]bool)
		}
		data[role][module][action] = true
	}

	pc.Lock()
	pc.data = data
	pc.updated = time.Now()
	pc.Unlock()
	return nil
}

// HasPermission checks whether a role has permission for module+action.
func (pc *PermCache) HasPermission(role, module, action string) bool {
	pc.RLock()
	defer pc.RUnlock()
	if pc.data[role] == nil || pc.data[role][module] == nil {
		return false
	}
	return pc.data[role][module][action]
}

// RolesWith returns the set of roles granted module+action, in the shape the
// metrics engine's override resolver consumes.
func (pc *PermCache) RolesWith(module, action string) map[string]bool {
	pc.RLock()
	defer pc.RUnlock()
	roles := make(map[string]bool)
	for role, mods := range pc.data {
		if mods[module] != nil && mods[module][action] {
			roles[role] = true
		}
	}
	return roles
}

// GetRolePermissions returns all permissions for a role.
func (pc *PermCache) GetRolePermissions(role string) []PermissionEntry {
	pc.RLock()
	defer pc.RUnlock()
	var perms []PermissionEntry
	for module, actions := range pc.data[role] {
		for action := range actions {
			perms = append(perms, PermissionEntry{Role: role, Module: module, Action: action})
		}
	}
	return perms
}

// SeedDefaultPermissions inserts the default role grants if none exist.
// supervisor and admin may override calculated targets; operators and
// setters may record their own work; readonly may only view.
func SeedDefaultPermissions(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM role_permissions").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	grants := map[string][][2]string{
		"admin":      allGrants(),
		"supervisor": append(viewGrants(), crudGrants(ModuleShifts, ModuleSetups, ModuleWorkOrders)...),
		"setter":     append(viewGrants(), crudGrants(ModuleSetups)...),
		"operator":   append(viewGrants(), crudGrants(ModuleShifts)...),
		"readonly":   viewGrants(),
	}
	grants["supervisor"] = append(grants["supervisor"], [2]string{ModuleShifts, PermActionOverride})

	for role, pairs := range grants {
		for _, p := range pairs {
			if _, err := db.Exec("INSERT INTO role_permissions (role, module, action) VALUES (?, ?, ?)",
				role, p[0], p[1]); err != nil {
				return err
			}
		}
	}
	return nil
}

func allGrants() [][2]string {
	var out [][2]string
	for _, m := range AllModules {
		for _, a := range AllActions {
			out = append(out, [2]string{m, a})
		}
	}
	return out
}

func viewGrants() [][2]string {
	var out [][2]string
	for _, m := range AllModules {
		if m == ModuleAdmin {
			continue
		}
		out = append(out, [2]string{m, PermActionView})
	}
	return out
}

func crudGrants(modules ...string) [][2]string {
	var out [][2]string
	for _, m := range modules {
		out = append(out,
			[2]string{m, PermActionCreate},
			[2]string{m, PermActionEdit},
			[2]string{m, PermActionDelete})
	}
	return out
}
