package sim

import (
	"context"
	"fmt"
	"log"
	"time"

	"loadboard/internal/config"
	"loadboard/internal/geo"
	"loadboard/internal/ledger"
	"loadboard/internal/market"
	"loadboard/internal/match"
	"loadboard/internal/metrics"
	"loadboard/internal/model"
)

// Progress is emitted after each simulated day of a backfill.
type Progress struct {
	Day         string `json:"day"`
	Trips       int    `json:"trips"`
	LedgerTotal int    `json:"ledgerTotal"`
	DaysDone    int    `json:"daysDone"`
	DaysTotal   int    `json:"daysTotal"`
}

// Runner wires generation, matching and persistence into the run-level
// operations: snapshot, single-day update, multi-year backfill and the daily
// refresh policy. Runs are strictly sequential; a day's records are computed
// fully in memory before being merged.
type Runner struct {
	Cfg   config.Config
	Geo   geo.Table
	Store ledger.Store

	// OnProgress, when set, observes each completed backfill day.
	OnProgress func(Progress)
}

func New(cfg config.Config, store ledger.Store) *Runner {
	return &Runner{Cfg: cfg, Geo: cfg.CityTable(), Store: store}
}

func (r *Runner) matcher() match.Matcher {
	t := r.Cfg.Tunables
	return match.Matcher{Geo: r.Geo, P: match.Params{
		AvgSpeedMph:         t.AvgSpeedMph,
		HOSDailyCapHours:    t.HOSDailyCapHours,
		MilesPerGallon:      t.MilesPerGallon,
		FuelPricePerGallon:  t.FuelPricePerGallon,
		TargetBiasWeight:    t.TargetBiasWeight,
		RepeatPenaltyWeight: t.RepeatPenaltyWeight,
	}}
}

// roster returns fresh mutable driver state for a run, leaving the configured
// roster untouched.
func (r *Runner) roster() []*model.Driver {
	out := make([]*model.Driver, len(r.Cfg.Drivers))
	for i := range r.Cfg.Drivers {
		d := r.Cfg.Drivers[i]
		out[i] = &d
	}
	return out
}

// BuildSnapshot runs the single-pass matcher over a freshly generated pool.
func (r *Runner) BuildSnapshot(day time.Time) ([]model.Assignment, error) {
	gen := market.Generator{Cities: r.Geo}
	loads, err := gen.Generate(day, r.Cfg.Tunables.LoadsPerDay, r.Cfg.Tunables.Seed)
	if err != nil {
		return nil, fmt.Errorf("sim snapshot: %w", err)
	}
	metrics.LoadsGenerated.Add(float64(len(loads)))
	return r.matcher().Snapshot(r.Cfg.Drivers, match.NewPool(loads)), nil
}

// Backfill simulates every calendar day in [start, end], merging each day's
// trips into a running ledger and writing the result once at the end.
// RouteMemory and driver city state carry forward across days.
func (r *Runner) Backfill(ctx context.Context, start, end time.Time, seed int64) ([]model.TripRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("sim backfill: end %s before start %s", end.Format(model.DateLayout), start.Format(model.DateLayout))
	}
	res := r.Store.Read(ctx)
	if res.Recovered {
		metrics.LedgerRecovered.Inc()
		log.Printf("ledger recovered: %s", res.Reason)
	}
	running := res.Records

	// Rebuild route memory only from history before the simulated window, so
	// re-running a range replays it identically instead of seeing its own
	// routes as repeats.
	startKey := start.Format(model.DateLayout)
	prior := make([]model.TripRecord, 0, len(running))
	for _, rec := range running {
		if rec.AssignedDate < startKey {
			prior = append(prior, rec)
		}
	}
	mem := match.NewRouteMemory(r.Cfg.Tunables.RouteCooldownDays)
	mem.FromRecords(prior)
	drivers := r.roster()
	gen := market.Generator{Cities: r.Geo}
	m := r.matcher()

	daysTotal := int(end.Sub(start).Hours()/24) + 1
	done := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loads, err := gen.Generate(day, r.Cfg.Tunables.LoadsPerDay, seed)
		if err != nil {
			return nil, fmt.Errorf("sim backfill: %w", err)
		}
		metrics.LoadsGenerated.Add(float64(len(loads)))

		recs, st, err := m.Day(day, drivers, match.NewPool(loads), mem)
		if err != nil {
			return nil, fmt.Errorf("sim backfill %s: %w", day.Format(model.DateLayout), err)
		}
		before := len(running) + len(recs)
		running = ledger.Merge(running, recs)
		metrics.TripsAssigned.Add(float64(st.TripsAssigned))
		metrics.RepeatFallbacks.Add(float64(st.RepeatFallbacks))
		metrics.MergeDuplicates.Add(float64(before - len(running)))
		metrics.BackfillDays.Inc()
		match.RecordStats(day.Format(model.DateLayout), st)

		done++
		if r.OnProgress != nil {
			r.OnProgress(Progress{
				Day:         day.Format(model.DateLayout),
				Trips:       st.TripsAssigned,
				LedgerTotal: len(running),
				DaysDone:    done,
				DaysTotal:   daysTotal,
			})
		}
	}

	if err := r.Store.Write(ctx, running); err != nil {
		return nil, fmt.Errorf("sim backfill: %w", err)
	}
	return running, nil
}

// UpdateDay merges a single simulated day into the persisted ledger. Running
// it twice for the same day is a no-op the second time.
func (r *Runner) UpdateDay(ctx context.Context, day time.Time) error {
	_, err := r.Backfill(ctx, day, day, r.Cfg.Tunables.Seed)
	return err
}

// Refresh applies the daily policy: always rewrite the latest snapshot, then
// backfill the configured window if the ledger is missing or unusable, else
// merge just the given day. A failed backfill degrades to the single-day
// update so the day's rows are produced regardless.
func (r *Runner) Refresh(ctx context.Context, day time.Time) error {
	rows, err := r.BuildSnapshot(day)
	if err != nil {
		return err
	}
	if err := ledger.WriteSnapshot(r.Cfg.SnapshotPath, rows); err != nil {
		return err
	}

	res := r.Store.Read(ctx)
	if res.Recovered || len(res.Records) == 0 {
		start := day.AddDate(0, 0, -r.Cfg.BackfillDays)
		if _, err := r.Backfill(ctx, start, day, r.Cfg.Tunables.Seed); err != nil {
			log.Printf("backfill failed, falling back to single-day update: %v", err)
			return r.UpdateDay(ctx, day)
		}
		return nil
	}
	return r.UpdateDay(ctx, day)
}
