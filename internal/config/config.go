package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"loadboard/internal/geo"
	"loadboard/internal/model"
)

// Tunables are the simulation constants. Zero values in a config file fall
// back to the defaults below.
type Tunables struct {
	AvgSpeedMph         float64 `yaml:"avgSpeedMph"`
	HOSDailyCapHours    float64 `yaml:"hosDailyCapHours"`
	MilesPerGallon      float64 `yaml:"milesPerGallon"`
	FuelPricePerGallon  float64 `yaml:"fuelPricePerGallon"`
	TargetBiasWeight    float64 `yaml:"targetBiasWeight"`
	RepeatPenaltyWeight float64 `yaml:"repeatPenaltyWeight"`
	RouteCooldownDays   int     `yaml:"routeCooldownDays"`
	LoadsPerDay         int     `yaml:"loadsPerDay"`
	Seed                int64   `yaml:"seed"`
}

// Config is the full static configuration: driver roster, city table and
// tunables, plus output file paths.
type Config struct {
	Drivers      []model.Driver       `yaml:"drivers"`
	Cities       map[string]geo.Point `yaml:"cities"`
	Tunables     Tunables             `yaml:"tunables"`
	HistoryPath  string               `yaml:"historyPath"`
	SnapshotPath string               `yaml:"snapshotPath"`
	BackfillDays int                  `yaml:"backfillDays"`
}

// Default returns the built-in configuration: the stock six-driver roster and
// the operational constants the historical datasets were produced with.
func Default() Config {
	return Config{
		Drivers: []model.Driver{
			{ID: 1, CurrentCity: "Chicago, IL", TargetCity: "Dallas, TX", AvailableHours: 40},
			{ID: 2, CurrentCity: "Atlanta, GA", TargetCity: "Orlando, FL", AvailableHours: 38},
			{ID: 3, CurrentCity: "St. Louis, MO", TargetCity: "Houston, TX", AvailableHours: 45},
			{ID: 4, CurrentCity: "Dallas, TX", TargetCity: "Atlanta, GA", AvailableHours: 36},
			{ID: 5, CurrentCity: "Nashville, TN", TargetCity: "Memphis, TN", AvailableHours: 42},
			{ID: 6, CurrentCity: "Houston, TX", TargetCity: "Chicago, IL", AvailableHours: 39},
		},
		Tunables: Tunables{
			AvgSpeedMph:         50,
			HOSDailyCapHours:    11,
			MilesPerGallon:      6,
			FuelPricePerGallon:  4.0,
			TargetBiasWeight:    2.0,
			RepeatPenaltyWeight: 5.0,
			RouteCooldownDays:   45,
			LoadsPerDay:         60,
			Seed:                42,
		},
		HistoryPath:  "assignment_history.csv",
		SnapshotPath: "latest_assignments.csv",
		BackfillDays: 365 * 2,
	}
}

// Load reads a YAML config file and merges it over the defaults. path=""
// consults LOADBOARD_CONFIG; if that is also unset, defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("LOADBOARD_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		cfg = merge(cfg, file)
	}
	if v := os.Getenv("LOADBOARD_HISTORY"); v != "" {
		cfg.HistoryPath = v
	}
	if v := os.Getenv("LOADBOARD_SNAPSHOT"); v != "" {
		cfg.SnapshotPath = v
	}
	return cfg, nil
}

// CityTable materializes the configured coordinate table, defaulting to the
// built-in one when no override is present.
func (c Config) CityTable() geo.Table {
	if len(c.Cities) == 0 {
		return geo.Default()
	}
	t := make(geo.Table, len(c.Cities))
	for name, p := range c.Cities {
		t[name] = p
	}
	return t
}

func merge(base, over Config) Config {
	out := base
	if len(over.Drivers) > 0 {
		out.Drivers = over.Drivers
	}
	if len(over.Cities) > 0 {
		out.Cities = over.Cities
	}
	if over.HistoryPath != "" {
		out.HistoryPath = over.HistoryPath
	}
	if over.SnapshotPath != "" {
		out.SnapshotPath = over.SnapshotPath
	}
	if over.BackfillDays > 0 {
		out.BackfillDays = over.BackfillDays
	}
	t := &out.Tunables
	o := over.Tunables
	if o.AvgSpeedMph > 0 {
		t.AvgSpeedMph = o.AvgSpeedMph
	}
	if o.HOSDailyCapHours > 0 {
		t.HOSDailyCapHours = o.HOSDailyCapHours
	}
	if o.MilesPerGallon > 0 {
		t.MilesPerGallon = o.MilesPerGallon
	}
	if o.FuelPricePerGallon > 0 {
		t.FuelPricePerGallon = o.FuelPricePerGallon
	}
	if o.TargetBiasWeight > 0 {
		t.TargetBiasWeight = o.TargetBiasWeight
	}
	if o.RepeatPenaltyWeight > 0 {
		t.RepeatPenaltyWeight = o.RepeatPenaltyWeight
	}
	if o.RouteCooldownDays > 0 {
		t.RouteCooldownDays = o.RouteCooldownDays
	}
	if o.LoadsPerDay > 0 {
		t.LoadsPerDay = o.LoadsPerDay
	}
	if o.Seed != 0 {
		t.Seed = o.Seed
	}
	return out
}
