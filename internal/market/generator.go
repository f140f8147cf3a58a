package market

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"loadboard/internal/geo"
	"loadboard/internal/model"
)

// Synthetic load market. Generate is fully deterministic for a fixed
// (day, count, seed) triple, which is what makes multi-year backfills
// reproducible.

const (
	roadFactor     = 1.15 // road miles over great-circle miles
	minMiles       = 60
	maxMiles       = 2200
	minRatePerMile = 1.70
	maxRatePerMile = 2.60
	minPayout      = 250
)

// daySeedPrime spreads consecutive days across the generator's seed space.
const daySeedPrime = 1_000_003

var errTooFewCities = errors.New("market: city table needs at least two cities")

// Generator produces the daily candidate load pool from a city table.
type Generator struct {
	Cities geo.Table
}

// Generate returns count loads for the given day. The pseudo-random stream is
// keyed by a stable function of day and seed, so repeated calls with the same
// arguments yield identical pools.
func (g Generator) Generate(day time.Time, count int, seed int64) ([]model.Load, error) {
	names := g.Cities.Cities()
	if len(names) < 2 {
		return nil, errTooFewCities
	}
	rng := rand.New(rand.NewSource(seed + epochDays(day)*daySeedPrime))
	loads := make([]model.Load, 0, count)
	for i := 0; i < count; i++ {
		oi := rng.Intn(len(names))
		di := rng.Intn(len(names))
		for di == oi {
			di = rng.Intn(len(names))
		}
		origin, dest := names[oi], names[di]

		base, ok := g.Cities.Distance(origin, dest)
		if !ok {
			// cannot happen for cities drawn from the table itself
			return nil, fmt.Errorf("market: no coordinates for %q or %q", origin, dest)
		}
		miles := base*roadFactor*(0.9+0.2*rng.Float64()) + rng.Float64()*25
		miles = math.Round(clamp(miles, minMiles, maxMiles))

		rate := minRatePerMile + rng.Float64()*(maxRatePerMile-minRatePerMile)
		payout := miles*rate + rng.Float64()*50
		if payout < minPayout {
			payout = minPayout
		}
		payout = math.Round(payout*100) / 100

		loads = append(loads, model.Load{
			ID:          fmt.Sprintf("L%s-%03d", day.Format("20060102"), i+1),
			Origin:      origin,
			Destination: dest,
			Miles:       miles,
			Payout:      payout,
		})
	}
	return loads, nil
}

// Validate enforces the generator's output contract. Matching treats a
// violation as a fatal precondition failure rather than coercing the value.
func Validate(l model.Load) error {
	switch {
	case l.ID == "":
		return errors.New("market: load missing id")
	case l.Origin == "" || l.Destination == "":
		return fmt.Errorf("market: load %s missing endpoint", l.ID)
	case l.Origin == l.Destination:
		return fmt.Errorf("market: load %s is a self-pair", l.ID)
	case l.Miles <= 0:
		return fmt.Errorf("market: load %s has non-positive miles %v", l.ID, l.Miles)
	case l.Payout < 0:
		return fmt.Errorf("market: load %s has negative payout %v", l.ID, l.Payout)
	}
	return nil
}

func epochDays(day time.Time) int64 {
	d := day.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
