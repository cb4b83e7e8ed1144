package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Machine is a production machine on the shop floor.
type Machine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Plant     string `json:"plant"`
	Location  string `json:"location"`
	Status    string `json:"status"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

// WorkOrder carries the per-unit cycle time that shift targets derive from.
type WorkOrder struct {
	ID               string  `json:"id"`
	ItemCode         string  `json:"item_code"`
	ItemName         string  `json:"item_name"`
	Qty              int     `json:"qty"`
	CycleTimeSeconds float64 `json:"cycle_time_seconds"`
	Status           string  `json:"status"`
	Notes            string  `json:"notes"`
	CreatedAt        string  `json:"created_at"`
}

// DowntimeEvent is a recorded non-productive interval within a shift.
type DowntimeEvent struct {
	ID              int    `json:"id"`
	ShiftEntryID    string `json:"shift_entry_id,omitempty"`
	Reason          string `json:"reason"`
	DurationMinutes int    `json:"duration_minutes"`
	Remark          string `json:"remark,omitempty"`
}

// TargetOverride is a role-gated manual substitution of the calculated target.
type TargetOverride struct {
	Value      int    `json:"value"`
	Reason     string `json:"reason"`
	ApprovedBy string `json:"approved_by"`
}

// ShiftEntry is one shift's raw production submission. Derived metrics are
// never stored with it; they are recomputed on every read.
type ShiftEntry struct {
	ID                 string          `json:"id"`
	Plant              string          `json:"plant"`
	ShiftLabel         string          `json:"shift_label"`
	MachineID          string          `json:"machine_id"`
	SetupNumber        string          `json:"setup_number"`
	ShiftDate          string          `json:"shift_date"`
	ShiftStartTime     string          `json:"shift_start_time"`
	ShiftEndTime       string          `json:"shift_end_time"`
	WorkOrderID        string          `json:"work_order_id"`
	ActualQty          int             `json:"actual_qty"`
	ReworkQty          int             `json:"rework_qty"`
	RejectionBreakdown map[string]int  `json:"rejection_breakdown"`
	Downtime           []DowntimeEvent `json:"downtime"`
	TargetOverride     *TargetOverride `json:"target_override,omitempty"`
	SubmittedBy        string          `json:"submitted_by"`
	CreatedAt          string          `json:"created_at"`
}

// SetupActivity is one machine setup/changeover performed by a setter.
type SetupActivity struct {
	ID                 string  `json:"id"`
	SetterID           string  `json:"setter_id"`
	SetterName         string  `json:"setter_name"`
	MachineID          string  `json:"machine_id"`
	ItemCode           string  `json:"item_code"`
	WorkOrderID        string  `json:"work_order_id"`
	SetupStartTime     string  `json:"setup_start_time"`
	SetupEndTime       *string `json:"setup_end_time"`
	FirstPieceApproval *string `json:"first_piece_approval_time"`
	Notes              string  `json:"notes"`
	CreatedAt          string  `json:"created_at"`
}

// User is an operator, setter, supervisor or admin account.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
	LastLogin   string `json:"last_login,omitempty"`
	CreatedAt   string `json:"created_at"`
}
