package main

import "shiftops/internal/models"

// Type aliases so handlers can use unqualified names; the definitions live
// in internal/models.

type Machine = models.Machine
type WorkOrder = models.WorkOrder
type DowntimeEvent = models.DowntimeEvent
type TargetOverride = models.TargetOverride
type ShiftEntry = models.ShiftEntry
type SetupActivity = models.SetupActivity
type User = models.User
