package metrics

import "time"

// SetupInput is one machine setup/changeover event. End and Approval stay nil
// until the setup finishes and the first piece is approved. CreatedAt orders
// submissions; duration math uses only the three setup timestamps.
type SetupInput struct {
	ID          string
	SetterID    string
	SetterName  string
	MachineID   string
	ItemCode    string
	WorkOrderID string
	Start       time.Time
	End         *time.Time
	Approval    *time.Time
	CreatedAt   time.Time
}

// SetupMetrics is derived per setup event. Nil means "unknown": the timestamp
// needed to compute the value has not been recorded yet, and aggregation must
// exclude it rather than count it as zero.
type SetupMetrics struct {
	DurationMinutes      *float64 `json:"setup_duration_minutes"`
	ApprovalDelayMinutes *float64 `json:"approval_delay_minutes"`
	IsRepeat             bool     `json:"is_repeat_setup"`
}

// ComputeSetup derives duration and approval delay for one setup event.
// A negative approval delay (approval recorded before setup end) is passed
// through unmodified; it is a data-entry anomaly the engine preserves.
func ComputeSetup(in SetupInput) SetupMetrics {
	var m SetupMetrics
	if in.End != nil {
		d := in.End.Sub(in.Start).Minutes()
		m.DurationMinutes = &d
		if in.Approval != nil {
			delay := in.Approval.Sub(*in.End).Minutes()
			m.ApprovalDelayMinutes = &delay
		}
	}
	return m
}
