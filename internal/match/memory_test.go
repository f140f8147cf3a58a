package match

import (
	"testing"
	"time"

	"loadboard/internal/model"
)

func TestRouteMemoryCooldownWindow(t *testing.T) {
	mem := NewRouteMemory(30)
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mem.Touch(1, "A__B", day)

	if !mem.RecentRepeat(1, "A__B", day.AddDate(0, 0, 10)) {
		t.Fatalf("expected repeat inside cooldown")
	}
	if mem.RecentRepeat(1, "A__B", day.AddDate(0, 0, 30)) {
		t.Fatalf("expected entry expired at the window edge")
	}
	if mem.RecentRepeat(2, "A__B", day.AddDate(0, 0, 10)) {
		t.Fatalf("route memory must be per driver")
	}
	if mem.RecentRepeat(1, "B__A", day.AddDate(0, 0, 10)) {
		t.Fatalf("reverse route is a different key")
	}
}

func TestRouteMemoryFromRecords(t *testing.T) {
	mem := NewRouteMemory(30)
	mem.FromRecords([]model.TripRecord{
		{AssignedDate: "2026-05-01", DriverID: 1, Origin: "A", Destination: "B"},
		{AssignedDate: "2026-05-20", DriverID: 1, Origin: "A", Destination: "B"},
		{AssignedDate: "bogus", DriverID: 2, Origin: "C", Destination: "D"},
	})
	probe := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	// Latest use (May 20) is still inside the 30-day window on June 10.
	if !mem.RecentRepeat(1, "A__B", probe) {
		t.Fatalf("expected newest ledger use to win")
	}
	if mem.RecentRepeat(2, "C__D", probe) {
		t.Fatalf("unparseable dates must be skipped")
	}
}

func TestRouteMemoryKeepsNewestUse(t *testing.T) {
	mem := NewRouteMemory(30)
	day := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	mem.Touch(1, "A__B", day)
	mem.Touch(1, "A__B", day.AddDate(0, 0, -19)) // stale touch must not rewind
	if !mem.RecentRepeat(1, "A__B", day.AddDate(0, 0, 25)) {
		t.Fatalf("expected newest use retained")
	}
}
