package ledger

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"loadboard/internal/model"
)

var historyHeader = []string{
	"AssignedDate", "TripStartDate", "TripEndDate", "DriverID", "LoadID", "SequenceNumber",
	"Origin", "Destination", "TargetCity", "Miles", "HoursRequired", "Payout",
	"FuelCost", "NetProfit", "PickupLat", "PickupLon", "DropoffLat", "DropoffLon",
}

// File persists the ledger as a flat CSV file. Corruption is never fatal:
// any structural problem degrades to an empty ledger which the next write
// rebuilds.
type File struct {
	Path string
}

func NewFile(path string) *File { return &File{Path: path} }

func (f *File) Read(ctx context.Context) ReadResult {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return ReadResult{Recovered: true, Reason: "history file missing"}
		}
		return ReadResult{Recovered: true, Reason: fmt.Sprintf("history read failed: %v", err)}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return ReadResult{Recovered: true, Reason: "history file empty"}
	}

	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return ReadResult{Recovered: true, Reason: fmt.Sprintf("history parse failed: %v", err)}
	}
	if len(rows) == 0 || len(rows[0]) < len(historyHeader) {
		return ReadResult{Recovered: true, Reason: "history header malformed"}
	}

	recs := make([]model.TripRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := decodeRow(row)
		if err != nil {
			return ReadResult{Recovered: true, Reason: fmt.Sprintf("history row %d malformed: %v", i+2, err)}
		}
		recs = append(recs, rec)
	}
	return ReadResult{Records: recs}
}

// Write replaces the ledger file in one shot, via a temp file rename so a
// failed run never leaves a half-written ledger behind.
func (f *File) Write(ctx context.Context, records []model.TripRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.Path), ".history-*.csv")
	if err != nil {
		return fmt.Errorf("ledger write: %w", err)
	}
	w := csv.NewWriter(tmp)
	if err := w.Write(historyHeader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger write: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(encodeRow(rec)); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("ledger write: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger write: %w", err)
	}
	return nil
}

// Size returns the current byte size of the ledger file, 0 if absent.
func (f *File) Size() int64 {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func encodeRow(r model.TripRecord) []string {
	return []string{
		r.AssignedDate, r.TripStartDate, r.TripEndDate,
		strconv.Itoa(r.DriverID), r.LoadID, strconv.Itoa(r.SequenceNumber),
		r.Origin, r.Destination, r.TargetCity,
		ffmt(r.Miles), ffmt(r.HoursRequired), ffmt(r.Payout), ffmt(r.FuelCost), ffmt(r.NetProfit),
		pfmt(r.PickupLat), pfmt(r.PickupLon), pfmt(r.DropoffLat), pfmt(r.DropoffLon),
	}
}

func decodeRow(row []string) (model.TripRecord, error) {
	if len(row) < len(historyHeader) {
		return model.TripRecord{}, fmt.Errorf("want %d columns, got %d", len(historyHeader), len(row))
	}
	var rec model.TripRecord
	var err error
	rec.AssignedDate, rec.TripStartDate, rec.TripEndDate = row[0], row[1], row[2]
	if rec.DriverID, err = strconv.Atoi(row[3]); err != nil {
		return model.TripRecord{}, fmt.Errorf("driver id: %w", err)
	}
	rec.LoadID = row[4]
	if rec.SequenceNumber, err = strconv.Atoi(row[5]); err != nil {
		return model.TripRecord{}, fmt.Errorf("sequence: %w", err)
	}
	rec.Origin, rec.Destination, rec.TargetCity = row[6], row[7], row[8]
	if rec.Miles, err = strconv.ParseFloat(row[9], 64); err != nil {
		return model.TripRecord{}, fmt.Errorf("miles: %w", err)
	}
	if rec.HoursRequired, err = strconv.ParseFloat(row[10], 64); err != nil {
		return model.TripRecord{}, fmt.Errorf("hours: %w", err)
	}
	if rec.Payout, err = strconv.ParseFloat(row[11], 64); err != nil {
		return model.TripRecord{}, fmt.Errorf("payout: %w", err)
	}
	if rec.FuelCost, err = strconv.ParseFloat(row[12], 64); err != nil {
		return model.TripRecord{}, fmt.Errorf("fuel cost: %w", err)
	}
	if rec.NetProfit, err = strconv.ParseFloat(row[13], 64); err != nil {
		return model.TripRecord{}, fmt.Errorf("net profit: %w", err)
	}
	if rec.PickupLat, err = pparse(row[14]); err != nil {
		return model.TripRecord{}, fmt.Errorf("pickup lat: %w", err)
	}
	if rec.PickupLon, err = pparse(row[15]); err != nil {
		return model.TripRecord{}, fmt.Errorf("pickup lon: %w", err)
	}
	if rec.DropoffLat, err = pparse(row[16]); err != nil {
		return model.TripRecord{}, fmt.Errorf("dropoff lat: %w", err)
	}
	if rec.DropoffLon, err = pparse(row[17]); err != nil {
		return model.TripRecord{}, fmt.Errorf("dropoff lon: %w", err)
	}
	return rec, nil
}

func ffmt(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func pfmt(v *float64) string {
	if v == nil {
		return ""
	}
	return ffmt(*v)
}

func pparse(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
