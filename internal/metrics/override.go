package metrics

import "strings"

// RoleSet is the set of roles allowed to override a calculated target.
type RoleSet map[string]bool

// Override is a manual target substitution requested by an actor. The audit
// reason is mandatory; the role check is resolved by the caller's identity
// layer and passed in as ActorRole.
type Override struct {
	Value     int
	Reason    string
	ActorRole string
}

// ResolveTarget returns the effective target quantity. The override applies
// only when the actor's role is authorized, the value is positive, and the
// reason is non-empty after trimming. An override that does not qualify is
// ignored and the calculated target is returned unchanged; surfacing that to
// the submitter is the boundary's job, not this function's.
func ResolveTarget(calculated int, ov *Override, authorized RoleSet) int {
	if overrideApplies(ov, authorized) {
		return ov.Value
	}
	return calculated
}

func overrideApplies(ov *Override, authorized RoleSet) bool {
	if ov == nil {
		return false
	}
	if !authorized[ov.ActorRole] {
		return false
	}
	if ov.Value <= 0 {
		return false
	}
	return strings.TrimSpace(ov.Reason) != ""
}
