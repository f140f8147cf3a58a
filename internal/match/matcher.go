package match

import (
	"fmt"
	"math"
	"time"

	"loadboard/internal/geo"
	"loadboard/internal/market"
	"loadboard/internal/model"
)

// Params are the operational constants the matcher runs under.
type Params struct {
	AvgSpeedMph         float64
	HOSDailyCapHours    float64
	MilesPerGallon      float64
	FuelPricePerGallon  float64
	TargetBiasWeight    float64
	RepeatPenaltyWeight float64
}

// Matcher assigns loads to drivers one simulated day at a time. The algorithm
// is deliberately greedy and myopic: each step takes the locally best-scoring
// load with no backtracking. Downstream history depends on this exact,
// order-sensitive behavior.
type Matcher struct {
	Geo geo.Table
	P   Params
}

// Stats summarizes one day of matching.
type Stats struct {
	TripsAssigned   int
	RepeatFallbacks int
	Spillovers      int
	PoolRemaining   int
}

// Day runs the greedy multi-trip matcher for one simulated day. Drivers are
// processed in roster order against the shared shrinking pool; each driver's
// loop ends when no load fits the remaining planning-horizon hours. The
// horizon is drawn from AvailableHours per invocation; a driver's trips may
// spill across several simulated days within it. CurrentCity is mutated to
// the last dropoff (informational only, never read by scoring).
func (m Matcher) Day(day time.Time, drivers []*model.Driver, pool *Pool, mem *RouteMemory) ([]model.TripRecord, Stats, error) {
	if m.P.AvgSpeedMph <= 0 {
		return nil, Stats{}, fmt.Errorf("match: average speed must be positive, got %v", m.P.AvgSpeedMph)
	}
	for _, l := range pool.Loads() {
		if err := market.Validate(l); err != nil {
			return nil, Stats{}, fmt.Errorf("match: malformed pool: %w", err)
		}
	}

	assigned := day.Format(model.DateLayout)
	var out []model.TripRecord
	var st Stats

	for _, d := range drivers {
		hoursToday := m.P.HOSDailyCapHours
		horizon := d.AvailableHours
		simDay := day
		seq := 0

		for horizon > 0 {
			best, fellBack := m.pick(d, pool, mem, day, horizon)
			if best == nil {
				break
			}
			if fellBack {
				st.RepeatFallbacks++
			}
			req := best.Miles / m.P.AvgSpeedMph

			start := simDay
			var end time.Time
			if req <= hoursToday {
				end = start
				hoursToday -= req
			} else {
				// trip rolls into the next day; it begins with the leftover
				// capacity already spent
				end = start.AddDate(0, 0, 1)
				hoursToday = m.P.HOSDailyCapHours - (req - hoursToday)
				if hoursToday < 0 {
					hoursToday = 0
				}
				simDay = end
				st.Spillovers++
			}

			horizon -= req
			pool.Remove(best.ID)
			mem.Touch(d.ID, best.RouteKey(), day)
			d.CurrentCity = best.Destination

			fuel := best.Miles / m.P.MilesPerGallon * m.P.FuelPricePerGallon
			seq++
			rec := model.TripRecord{
				AssignedDate:   assigned,
				TripStartDate:  start.Format(model.DateLayout),
				TripEndDate:    end.Format(model.DateLayout),
				DriverID:       d.ID,
				LoadID:         best.ID,
				SequenceNumber: seq,
				Origin:         best.Origin,
				Destination:    best.Destination,
				TargetCity:     d.TargetCity,
				Miles:          best.Miles,
				HoursRequired:  round2(req),
				Payout:         best.Payout,
				FuelCost:       round2(fuel),
				NetProfit:      round2(best.Payout - fuel),
			}
			rec.PickupLat, rec.PickupLon = m.coords(best.Origin)
			rec.DropoffLat, rec.DropoffLon = m.coords(best.Destination)
			out = append(out, rec)
			st.TripsAssigned++

			if hoursToday <= 0 {
				simDay = simDay.AddDate(0, 0, 1)
				hoursToday = m.P.HOSDailyCapHours
			}
		}
	}
	st.PoolRemaining = pool.Remaining()
	return out, st, nil
}

// pick returns the best-scoring eligible load for the driver, or nil when
// nothing fits the remaining horizon. If the anti-repeat filter empties the
// candidate set, repeats are allowed back in rather than stalling the driver.
func (m Matcher) pick(d *model.Driver, pool *Pool, mem *RouteMemory, day time.Time, horizon float64) (best *model.Load, fellBack bool) {
	type cand struct {
		load   model.Load
		repeat bool
	}
	var fits, fresh []cand
	for _, l := range pool.Loads() {
		if l.Miles/m.P.AvgSpeedMph > horizon {
			continue
		}
		c := cand{load: l, repeat: mem.RecentRepeat(d.ID, l.RouteKey(), day)}
		fits = append(fits, c)
		if !c.repeat {
			fresh = append(fresh, c)
		}
	}
	if len(fits) == 0 {
		return nil, false
	}
	cands := fresh
	if len(cands) == 0 {
		cands = fits
		fellBack = true
	}

	bestScore := math.Inf(-1)
	var chosen cand
	for _, c := range cands {
		s := m.score(d, c.load, c.repeat)
		better := s > bestScore
		if s == bestScore {
			// deterministic tie-break: payout desc, then load id asc
			if c.load.Payout > chosen.load.Payout ||
				(c.load.Payout == chosen.load.Payout && c.load.ID < chosen.load.ID) {
				better = true
			}
		}
		if better {
			bestScore = s
			chosen = c
		}
	}
	l := chosen.load
	return &l, fellBack
}

// score is payout-per-hour biased toward the driver's target city and away
// from recently repeated routes. A destination or target missing from the
// city table contributes zero bias.
func (m Matcher) score(d *model.Driver, l model.Load, repeat bool) float64 {
	hours := l.Miles / m.P.AvgSpeedMph
	s := l.Payout / hours
	if toTarget, ok := m.Geo.Distance(l.Destination, d.TargetCity); ok {
		s -= m.P.TargetBiasWeight * (toTarget / 1000)
	}
	if repeat {
		s -= m.P.RepeatPenaltyWeight
	}
	return s
}

func (m Matcher) coords(city string) (*float64, *float64) {
	p, ok := m.Geo.Lookup(city)
	if !ok {
		return nil, nil
	}
	lat, lon := p.Lat, p.Lon
	return &lat, &lon
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
