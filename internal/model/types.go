package model

// Core domain types for the load-assignment simulation.

// DateLayout is the wire/storage form of all simulation dates.
const DateLayout = "2006-01-02"

// Driver carries a planning-horizon hour budget across one simulation run.
// AvailableHours is never reset between simulated days; CurrentCity tracks the
// last dropoff but is informational only and never feeds scoring.
type Driver struct {
	ID             int     `json:"driverId" yaml:"driverId"`
	CurrentCity    string  `json:"currentCity" yaml:"currentCity"`
	TargetCity     string  `json:"targetCity" yaml:"targetCity"`
	AvailableHours float64 `json:"availableHours" yaml:"availableHours"`
}

// Load is a candidate freight load for a single simulated day. Loads are
// ephemeral: generated fresh each day, claimed at most once, never persisted
// on their own.
type Load struct {
	ID          string  `json:"loadId"`
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Miles       float64 `json:"miles"`
	Payout      float64 `json:"payout"`
}

// RouteKey identifies an origin/destination pair for repeat tracking.
func (l Load) RouteKey() string { return l.Origin + "__" + l.Destination }

// TripRecord is one completed assignment in the history ledger. Immutable once
// written; uniquely identified by (AssignedDate, DriverID, LoadID, SequenceNumber).
type TripRecord struct {
	AssignedDate   string   `json:"assignedDate"`
	TripStartDate  string   `json:"tripStartDate"`
	TripEndDate    string   `json:"tripEndDate"`
	DriverID       int      `json:"driverId"`
	LoadID         string   `json:"loadId"`
	SequenceNumber int      `json:"sequenceNumber"`
	Origin         string   `json:"origin"`
	Destination    string   `json:"destination"`
	TargetCity     string   `json:"targetCity"`
	Miles          float64  `json:"miles"`
	HoursRequired  float64  `json:"hoursRequired"`
	Payout         float64  `json:"payout"`
	FuelCost       float64  `json:"fuelCost"`
	NetProfit      float64  `json:"netProfit"`
	PickupLat      *float64 `json:"pickupLat,omitempty"`
	PickupLon      *float64 `json:"pickupLon,omitempty"`
	DropoffLat     *float64 `json:"dropoffLat,omitempty"`
	DropoffLon     *float64 `json:"dropoffLon,omitempty"`
}

// Key returns the dedup identity used by the history ledger.
func (t TripRecord) Key() TripKey {
	return TripKey{AssignedDate: t.AssignedDate, DriverID: t.DriverID, LoadID: t.LoadID, Seq: t.SequenceNumber}
}

// TripKey is the composite identity of a TripRecord.
type TripKey struct {
	AssignedDate string
	DriverID     int
	LoadID       string
	Seq          int
}

// Assignment is one snapshot row: a driver and, if one was found, the single
// best load for the latest view. Pointer fields are nil for unassigned drivers.
type Assignment struct {
	DriverID       int      `json:"driverId"`
	AssignedLoadID *string  `json:"assignedLoadId"`
	Origin         *string  `json:"origin,omitempty"`
	Destination    *string  `json:"destination,omitempty"`
	LoadMiles      *float64 `json:"loadMiles,omitempty"`
	Payout         float64  `json:"payout"`
	ToTargetMiles  *float64 `json:"toTargetMiles,omitempty"`
	PickupLat      *float64 `json:"pickupLat,omitempty"`
	PickupLon      *float64 `json:"pickupLon,omitempty"`
	DropoffLat     *float64 `json:"dropoffLat,omitempty"`
	DropoffLon     *float64 `json:"dropoffLon,omitempty"`
	FuelCost       *float64 `json:"fuelCost,omitempty"`
	NetProfit      *float64 `json:"netProfit,omitempty"`
}
