package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError represents a structured validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects multiple field errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (ve *ValidationErrors) Add(field, message string) {
	ve.Errors = append(ve.Errors, ValidationError{Field: field, Message: message})
}

func (ve *ValidationErrors) HasErrors() bool {
	return len(ve.Errors) > 0
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, e := range ve.Errors {
		msgs[i] = e.Field + ": " + e.Message
	}
	return strings.Join(msgs, "; ")
}

// requireField checks a required string field is non-empty
func requireField(ve *ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		ve.Add(field, "is required")
	}
}

// validateEnum checks a field is one of allowed values
func validateEnum(ve *ValidationErrors, field, value string, allowed []string) {
	if value == "" {
		return // only validate if set; combine with requireField if mandatory
	}
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	ve.Add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
}

// validateDate checks a field is a valid date (YYYY-MM-DD)
func validateDate(ve *ValidationErrors, field, value string) {
	if value == "" {
		return
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		ve.Add(field, "must be a valid date (YYYY-MM-DD)")
	}
}

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// validateClock checks a field is a valid HH:MM time of day. The metrics
// engine treats malformed times as a precondition violation, so this gate
// must run before anything is computed.
func validateClock(ve *ValidationErrors, field, value string) {
	if !clockPattern.MatchString(value) {
		ve.Add(field, "must be a valid time (HH:MM)")
	}
}

// validatePositiveInt checks a field is > 0
func validatePositiveInt(ve *ValidationErrors, field string, value int) {
	if value <= 0 {
		ve.Add(field, "must be a positive integer")
	}
}

// validateNonNegativeInt checks a field is >= 0
func validateNonNegativeInt(ve *ValidationErrors, field string, value int) {
	if value < 0 {
		ve.Add(field, "must be non-negative")
	}
}

// validateMaxLength checks string doesn't exceed max length
func validateMaxLength(ve *ValidationErrors, field, value string, max int) {
	if len(value) > max {
		ve.Add(field, fmt.Sprintf("must be at most %d characters", max))
	}
}

// validateForeignKey checks that a referenced record exists
func validateForeignKey(ve *ValidationErrors, field, table, id string) {
	if id == "" {
		return
	}
	var count int
	err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id=?", table), id).Scan(&count)
	if err != nil || count == 0 {
		ve.Add(field, fmt.Sprintf("references non-existent %s: %s", table, id))
	}
}

// Common enum values
var (
	// These MUST match DB CHECK constraints in db.go
	validShiftLabels     = []string{"Day", "Night"}
	validMachineStatuses = []string{"active", "maintenance", "retired"}
	validWOStatuses      = []string{"open", "in_progress", "completed", "cancelled", "on_hold"}
	validUserRoles       = []string{"admin", "supervisor", "setter", "operator", "readonly"}

	// The 16 fixed downtime categories recorded against a shift.
	validDowntimeReasons = []string{
		"machine_breakdown", "tool_change", "die_change", "material_shortage",
		"power_failure", "quality_check", "setup_adjustment", "planned_maintenance",
		"unplanned_maintenance", "operator_absence", "material_handling",
		"programming", "inspection_hold", "trial_run", "cleaning", "other",
	}

	// The 10 fixed rejection-cause keys in a shift's rejection breakdown.
	validRejectionCauses = []string{
		"dimensional", "surface_finish", "burr", "crack", "tool_mark",
		"material_defect", "setup_error", "handling_damage", "misfeed", "other",
	}
)

func isValidRejectionCause(key string) bool {
	for _, c := range validRejectionCauses {
		if key == c {
			return true
		}
	}
	return false
}

// validateDowntime checks every downtime event on a shift submission.
// Non-positive durations block submission; they must never reach the engine.
func validateDowntime(ve *ValidationErrors, events []DowntimeEvent) {
	for i, ev := range events {
		prefix := fmt.Sprintf("downtime[%d]", i)
		validateEnum(ve, prefix+".reason", ev.Reason, validDowntimeReasons)
		if ev.Reason == "" {
			ve.Add(prefix+".reason", "is required")
		}
		validatePositiveInt(ve, prefix+".duration_minutes", ev.DurationMinutes)
		validateMaxLength(ve, prefix+".remark", ev.Remark, 500)
	}
}

// validateRejections checks the rejection breakdown keys and counts.
func validateRejections(ve *ValidationErrors, breakdown map[string]int) {
	for key, qty := range breakdown {
		if !isValidRejectionCause(key) {
			ve.Add("rejection_breakdown."+key, "is not a known rejection cause")
		}
		if qty < 0 {
			ve.Add("rejection_breakdown."+key, "must be non-negative")
		}
	}
}

// validateOverride checks a manual target override submission. The reason is
// a mandatory audit trail; a missing reason blocks submission rather than
// being silently dropped by the engine.
func validateOverride(ve *ValidationErrors, ov *TargetOverride) {
	if ov == nil {
		return
	}
	if ov.Value <= 0 {
		ve.Add("target_override.value", "must be a positive integer")
	}
	if strings.TrimSpace(ov.Reason) == "" {
		ve.Add("target_override.reason", "is required when overriding the target")
	}
	validateMaxLength(ve, "target_override.reason", ov.Reason, 500)
}
