package match

import (
	"math"

	"loadboard/internal/model"
)

// Snapshot is the single-pass variant of the matcher used for the "latest"
// view: one load per driver, highest payout wins, ties broken by distance to
// the driver's target city (ascending) then load id. No HOS spillover and no
// multi-day state. Drivers with no eligible load get a null-assignment row.
func (m Matcher) Snapshot(drivers []model.Driver, pool *Pool) []model.Assignment {
	out := make([]model.Assignment, 0, len(drivers))
	for _, d := range drivers {
		maxMiles := d.AvailableHours * m.P.AvgSpeedMph

		var best *model.Load
		bestToTarget := math.Inf(1)
		for _, l := range pool.Loads() {
			if l.Miles > maxMiles {
				continue
			}
			toTarget := 0.0 // unknown cities carry no distance signal
			if v, ok := m.Geo.Distance(l.Destination, d.TargetCity); ok {
				toTarget = v
			}
			take := best == nil ||
				l.Payout > best.Payout ||
				(l.Payout == best.Payout && toTarget < bestToTarget) ||
				(l.Payout == best.Payout && toTarget == bestToTarget && l.ID < best.ID)
			if take {
				cp := l
				best = &cp
				bestToTarget = toTarget
			}
		}

		if best == nil {
			out = append(out, model.Assignment{DriverID: d.ID, Payout: 0})
			continue
		}
		pool.Remove(best.ID)

		fuel := best.Miles / m.P.MilesPerGallon * m.P.FuelPricePerGallon
		a := model.Assignment{
			DriverID:       d.ID,
			AssignedLoadID: ptr(best.ID),
			Origin:         ptr(best.Origin),
			Destination:    ptr(best.Destination),
			LoadMiles:      ptr(best.Miles),
			Payout:         best.Payout,
			FuelCost:       ptr(round2(fuel)),
			NetProfit:      ptr(round2(best.Payout - fuel)),
		}
		if _, ok := m.Geo.Distance(best.Destination, d.TargetCity); ok {
			a.ToTargetMiles = ptr(math.Round(bestToTarget*10) / 10)
		}
		a.PickupLat, a.PickupLon = m.coords(best.Origin)
		a.DropoffLat, a.DropoffLon = m.coords(best.Destination)
		out = append(out, a)
	}
	return out
}

func ptr[T any](v T) *T { return &v }
