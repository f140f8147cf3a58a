package match

import (
	"math"
	"testing"

	"loadboard/internal/model"
)

func TestSnapshotSingleLoadMath(t *testing.T) {
	m := testMatcher()
	drivers := []model.Driver{{ID: 1, TargetCity: "Dallas, TX", AvailableHours: 40}}
	pool := NewPool([]model.Load{{
		ID: "L1", Origin: "Chicago, IL", Destination: "Memphis, TN", Miles: 500, Payout: 1000,
	}})

	rows := m.Snapshot(drivers, pool)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	a := rows[0]
	if a.AssignedLoadID == nil || *a.AssignedLoadID != "L1" {
		t.Fatalf("expected L1 assigned: %+v", a)
	}
	if a.FuelCost == nil || math.Abs(*a.FuelCost-333.33) > 1e-9 {
		t.Fatalf("fuel cost = %v, want 333.33", a.FuelCost)
	}
	if a.NetProfit == nil || math.Abs(*a.NetProfit-666.67) > 1e-9 {
		t.Fatalf("net profit = %v, want 666.67", a.NetProfit)
	}
	if a.PickupLat == nil || a.DropoffLat == nil {
		t.Fatalf("expected geo fields for known cities")
	}
	if pool.Remaining() != 0 {
		t.Fatalf("assigned load should leave the pool")
	}
}

func TestSnapshotNullAssignment(t *testing.T) {
	m := testMatcher()
	drivers := []model.Driver{{ID: 1, TargetCity: "Dallas, TX", AvailableHours: 4}}
	// 500 mi needs 10 h; the driver has 4.
	pool := NewPool([]model.Load{{ID: "L1", Origin: "Chicago, IL", Destination: "Memphis, TN", Miles: 500, Payout: 1000}})

	rows := m.Snapshot(drivers, pool)
	a := rows[0]
	if a.AssignedLoadID != nil || a.Payout != 0 || a.FuelCost != nil || a.PickupLat != nil {
		t.Fatalf("expected null assignment, got %+v", a)
	}
	if pool.Remaining() != 1 {
		t.Fatalf("unassigned load must stay in the pool")
	}
}

func TestSnapshotPrefersPayoutThenTargetDistance(t *testing.T) {
	m := testMatcher()
	drivers := []model.Driver{{ID: 1, TargetCity: "Dallas, TX", AvailableHours: 40}}
	pool := NewPool([]model.Load{
		{ID: "L1", Origin: "Chicago, IL", Destination: "Orlando, FL", Miles: 500, Payout: 1000},
		{ID: "L2", Origin: "Chicago, IL", Destination: "Houston, TX", Miles: 900, Payout: 1000},
		{ID: "L3", Origin: "Chicago, IL", Destination: "Memphis, TN", Miles: 400, Payout: 900},
	})

	rows := m.Snapshot(drivers, pool)
	// L1 and L2 tie on payout; Houston is far closer to Dallas than Orlando.
	if rows[0].AssignedLoadID == nil || *rows[0].AssignedLoadID != "L2" {
		t.Fatalf("expected L2 (closer to target on payout tie), got %+v", rows[0])
	}
}

func TestSnapshotSharedPoolAcrossDrivers(t *testing.T) {
	m := testMatcher()
	drivers := []model.Driver{
		{ID: 1, TargetCity: "Dallas, TX", AvailableHours: 40},
		{ID: 2, TargetCity: "Dallas, TX", AvailableHours: 40},
	}
	pool := NewPool([]model.Load{{ID: "L1", Origin: "Chicago, IL", Destination: "Memphis, TN", Miles: 500, Payout: 1000}})

	rows := m.Snapshot(drivers, pool)
	if rows[0].AssignedLoadID == nil {
		t.Fatalf("first driver should claim the load")
	}
	if rows[1].AssignedLoadID != nil {
		t.Fatalf("second driver must not reuse a claimed load")
	}
}
