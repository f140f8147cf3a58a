package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"loadboard/internal/model"
)

var snapshotHeader = []string{
	"DriverID", "AssignedLoadID", "Origin", "Destination", "LoadMiles", "Payout",
	"ToTargetMiles", "PickupLat", "PickupLon", "DropoffLat", "DropoffLon",
	"FuelCost", "NetProfit",
}

// EncodeSnapshot writes the latest-assignments view as CSV. Null fields of
// unassigned drivers become empty columns.
func EncodeSnapshot(w io.Writer, rows []model.Assignment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return err
	}
	for _, a := range rows {
		row := []string{
			strconv.Itoa(a.DriverID),
			sfmt(a.AssignedLoadID), sfmt(a.Origin), sfmt(a.Destination),
			pfmt(a.LoadMiles), ffmt(a.Payout), pfmt(a.ToTargetMiles),
			pfmt(a.PickupLat), pfmt(a.PickupLon), pfmt(a.DropoffLat), pfmt(a.DropoffLon),
			pfmt(a.FuelCost), pfmt(a.NetProfit),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSnapshot replaces the snapshot file via temp-and-rename.
func WriteSnapshot(path string, rows []model.Assignment) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := EncodeSnapshot(tmp, rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot write: %w", err)
	}
	return nil
}

func sfmt(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
