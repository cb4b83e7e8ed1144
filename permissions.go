package main

import (
	"strings"

	"shiftops/internal/auth"
	"shiftops/internal/metrics"
)

// Permission module/action constant aliases.
const (
	ModuleMachines   = auth.ModuleMachines
	ModuleWorkOrders = auth.ModuleWorkOrders
	ModuleShifts     = auth.ModuleShifts
	ModuleSetups     = auth.ModuleSetups
	ModuleReports    = auth.ModuleReports
	ModuleAdmin      = auth.ModuleAdmin

	ActionView     = auth.PermActionView
	ActionCreate   = auth.PermActionCreate
	ActionEdit     = auth.PermActionEdit
	ActionDelete   = auth.PermActionDelete
	ActionOverride = auth.PermActionOverride
)

// Global permission cache.
var permCache = auth.NewPermCache()

func refreshPermCache() error {
	return permCache.Refresh(db)
}

func HasPermission(role, module, action string) bool {
	return permCache.HasPermission(role, module, action)
}

// overrideAuthorizedRoles is the single authorization predicate for manual
// target overrides: config roles plus anyone granted shifts/override.
func overrideAuthorizedRoles() metrics.RoleSet {
	roles := permCache.RolesWith(ModuleShifts, ActionOverride)
	for r, ok := range serverConfig.overrideRoleSet() {
		if ok {
			roles[r] = true
		}
	}
	return roles
}

// mapAPIPathToPermission resolves an /api/v1/ path+method to the permission
// it requires. Empty module means no explicit gate beyond authentication.
func mapAPIPathToPermission(apiPath, method string) (module, action string) {
	seg := strings.SplitN(apiPath, "/", 2)[0]
	switch seg {
	case "machines":
		module = ModuleMachines
	case "workorders":
		module = ModuleWorkOrders
	case "shifts":
		module = ModuleShifts
	case "setups":
		module = ModuleSetups
	case "reports":
		module = ModuleReports
	case "users", "audit":
		return ModuleAdmin, ActionView
	default:
		return "", ""
	}

	switch method {
	case "GET":
		action = ActionView
	case "POST":
		action = ActionCreate
	case "PUT":
		action = ActionEdit
	case "DELETE":
		action = ActionDelete
	}
	// Exports read data; gate them as views.
	if strings.HasSuffix(apiPath, "/export") {
		action = ActionView
	}
	return module, action
}
