package ledger

import (
	"context"

	"loadboard/internal/model"
)

// Store is the persistence interface for the trip ledger. A run performs a
// single read-modify-write against it; there is no interleaved I/O.
type Store interface {
	// Read loads the persisted ledger. It never fails: a missing, empty or
	// corrupt ledger degrades to an empty one with Recovered set.
	Read(ctx context.Context) ReadResult
	Write(ctx context.Context, records []model.TripRecord) error
}

// ReadResult distinguishes a clean read from a recovered one. Recovered means
// the prior state was unusable and the ledger is being rebuilt from scratch;
// Reason says why.
type ReadResult struct {
	Records   []model.TripRecord
	Recovered bool
	Reason    string
}

// Merge concatenates new records onto an existing ledger and drops duplicates
// on the (assignedDate, driverId, loadId, sequenceNumber) composite key,
// keeping the first occurrence. Merging the same records twice yields the
// same ledger as merging once.
func Merge(existing, records []model.TripRecord) []model.TripRecord {
	out := make([]model.TripRecord, 0, len(existing)+len(records))
	seen := make(map[model.TripKey]struct{}, len(existing)+len(records))
	for _, r := range existing {
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	for _, r := range records {
		if _, dup := seen[r.Key()]; dup {
			continue
		}
		seen[r.Key()] = struct{}{}
		out = append(out, r)
	}
	return out
}
