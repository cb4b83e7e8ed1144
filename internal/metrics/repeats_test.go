package metrics

import (
	"testing"
	"time"
)

func setupAt(id, item, wo string, start time.Time) SetupInput {
	return SetupInput{ID: id, ItemCode: item, WorkOrderID: wo, Start: start}
}

func TestDetectRepeatsRollingWindow(t *testing.T) {
	t0 := ts("2025-03-10 00:00")
	records := []SetupInput{
		setupAt("S1", "ITEM-1", "WO-1", t0),
		setupAt("S2", "ITEM-1", "WO-1", t0.Add(10*time.Hour)),
		setupAt("S3", "ITEM-1", "WO-1", t0.Add(30*time.Hour)),
	}
	repeats := DetectRepeats(records, 24*time.Hour)

	if repeats["S1"] {
		t.Error("earliest setup in a cluster must never be flagged")
	}
	if !repeats["S2"] {
		t.Error("setup 10h after the first should be a repeat")
	}
	// 30h after the first but only 20h after the second: the flag chains
	// through the rolling window.
	if !repeats["S3"] {
		t.Error("setup within 24h of the previous repeat should be flagged")
	}
}

func TestDetectRepeatsExactWindowBoundary(t *testing.T) {
	t0 := ts("2025-03-10 06:00")
	records := []SetupInput{
		setupAt("S1", "ITEM-1", "WO-1", t0),
		setupAt("S2", "ITEM-1", "WO-1", t0.Add(24*time.Hour)),
	}
	repeats := DetectRepeats(records, 24*time.Hour)
	if repeats["S2"] {
		t.Error("exactly 24h apart is not a repeat (strict less-than)")
	}
}

func TestDetectRepeatsPartitionsByItemAndWorkOrder(t *testing.T) {
	t0 := ts("2025-03-10 06:00")
	records := []SetupInput{
		setupAt("S1", "ITEM-1", "WO-1", t0),
		setupAt("S2", "ITEM-2", "WO-1", t0.Add(time.Hour)),
		setupAt("S3", "ITEM-1", "WO-2", t0.Add(2*time.Hour)),
		setupAt("S4", "ITEM-1", "WO-1", t0.Add(3*time.Hour)),
	}
	repeats := DetectRepeats(records, 24*time.Hour)
	if repeats["S2"] || repeats["S3"] {
		t.Error("different item or work order must not share a partition")
	}
	if !repeats["S4"] {
		t.Error("same item and work order within window should be a repeat")
	}
}

func TestDetectRepeatsIgnoresMissingIdentity(t *testing.T) {
	t0 := ts("2025-03-10 06:00")
	records := []SetupInput{
		setupAt("S1", "", "WO-1", t0),
		setupAt("S2", "", "WO-1", t0.Add(time.Hour)),
		setupAt("S3", "ITEM-1", "", t0.Add(2*time.Hour)),
		setupAt("S4", "ITEM-1", "", t0.Add(3*time.Hour)),
	}
	repeats := DetectRepeats(records, 24*time.Hour)
	if len(repeats) != 0 {
		t.Errorf("records missing item or work-order identity were flagged: %v", repeats)
	}
}

func TestDetectRepeatsUnorderedInput(t *testing.T) {
	// The detector sorts each partition itself; callers only guarantee
	// completeness, not order.
	t0 := ts("2025-03-10 00:00")
	records := []SetupInput{
		setupAt("S3", "ITEM-1", "WO-1", t0.Add(30*time.Hour)),
		setupAt("S1", "ITEM-1", "WO-1", t0),
		setupAt("S2", "ITEM-1", "WO-1", t0.Add(10*time.Hour)),
	}
	repeats := DetectRepeats(records, 24*time.Hour)
	if repeats["S1"] || !repeats["S2"] || !repeats["S3"] {
		t.Errorf("unexpected flags: %v", repeats)
	}
}

func TestDetectRepeatsDefaultWindow(t *testing.T) {
	t0 := ts("2025-03-10 00:00")
	records := []SetupInput{
		setupAt("S1", "ITEM-1", "WO-1", t0),
		setupAt("S2", "ITEM-1", "WO-1", t0.Add(23*time.Hour)),
	}
	repeats := DetectRepeats(records, 0)
	if !repeats["S2"] {
		t.Error("non-positive window should fall back to the 24h default")
	}
}
