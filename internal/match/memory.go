package match

import (
	"time"

	"loadboard/internal/model"
)

type routeKey struct {
	DriverID int
	Route    string
}

// RouteMemory is the sliding-window anti-repeat index: (driver, route) pairs
// mapped to the day they were last assigned. Entries older than the cooldown
// are expired at lookup time, not physically deleted. It is rebuilt from the
// persisted ledger at run start and updated in place during matching.
type RouteMemory struct {
	cooldownDays int
	last         map[routeKey]time.Time
}

func NewRouteMemory(cooldownDays int) *RouteMemory {
	return &RouteMemory{cooldownDays: cooldownDays, last: map[routeKey]time.Time{}}
}

// FromRecords seeds the memory from ledger rows. Rows with unparseable dates
// are skipped; a corrupt ledger already degraded to empty upstream.
func (m *RouteMemory) FromRecords(recs []model.TripRecord) {
	for _, r := range recs {
		day, err := time.Parse(model.DateLayout, r.AssignedDate)
		if err != nil {
			continue
		}
		m.touch(r.DriverID, r.Origin+"__"+r.Destination, day)
	}
}

// RecentRepeat reports whether the driver ran this route within the cooldown
// window before day.
func (m *RouteMemory) RecentRepeat(driverID int, route string, day time.Time) bool {
	used, ok := m.last[routeKey{DriverID: driverID, Route: route}]
	if !ok {
		return false
	}
	age := int(day.Sub(used).Hours() / 24)
	return age >= 0 && age < m.cooldownDays
}

// Touch records that the driver was assigned this route on day. Later days
// win; backfill replays the ledger in date order so this keeps the newest use.
func (m *RouteMemory) Touch(driverID int, route string, day time.Time) {
	m.touch(driverID, route, day)
}

func (m *RouteMemory) touch(driverID int, route string, day time.Time) {
	k := routeKey{DriverID: driverID, Route: route}
	if prev, ok := m.last[k]; ok && prev.After(day) {
		return
	}
	m.last[k] = day
}
