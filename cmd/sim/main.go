package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"loadboard/internal/config"
	"loadboard/internal/ledger"
	"loadboard/internal/model"
	"loadboard/internal/sim"
)

func main() {
	var (
		mode       = flag.String("mode", "refresh", "one of: snapshot, update, backfill, refresh")
		date       = flag.String("date", "", "simulated day, YYYY-MM-DD (default today UTC)")
		start      = flag.String("start", "", "backfill start day, YYYY-MM-DD")
		end        = flag.String("end", "", "backfill end day, YYYY-MM-DD (default -date)")
		seed       = flag.Int64("seed", 0, "override the configured market seed")
		configPath = flag.String("config", "", "config file (default $LOADBOARD_CONFIG)")
		history    = flag.String("history", "", "trip ledger path (default from config)")
		snapshot   = flag.String("snapshot", "", "snapshot path (default from config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *history != "" {
		cfg.HistoryPath = *history
	}
	if *snapshot != "" {
		cfg.SnapshotPath = *snapshot
	}
	if *seed != 0 {
		cfg.Tunables.Seed = *seed
	}

	day, err := parseDay(*date, time.Now().UTC())
	if err != nil {
		log.Fatalf("date: %v", err)
	}

	rn := sim.New(cfg, ledger.NewFile(cfg.HistoryPath))
	rn.OnProgress = func(p sim.Progress) {
		log.Printf("%s: %d trips, ledger %d rows (%d/%d days)", p.Day, p.Trips, p.LedgerTotal, p.DaysDone, p.DaysTotal)
	}
	ctx := context.Background()

	switch *mode {
	case "snapshot":
		rows, err := rn.BuildSnapshot(day)
		if err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		if err := ledger.WriteSnapshot(cfg.SnapshotPath, rows); err != nil {
			log.Fatalf("snapshot: %v", err)
		}
		log.Printf("wrote %s (%d drivers)", cfg.SnapshotPath, len(rows))
	case "update":
		if err := rn.UpdateDay(ctx, day); err != nil {
			log.Fatalf("update: %v", err)
		}
		log.Printf("merged %s into %s", day.Format(model.DateLayout), cfg.HistoryPath)
	case "backfill":
		if *start == "" {
			log.Fatal("backfill: -start is required")
		}
		from, err := time.Parse(model.DateLayout, *start)
		if err != nil {
			log.Fatalf("start: %v", err)
		}
		to := day
		if *end != "" {
			if to, err = time.Parse(model.DateLayout, *end); err != nil {
				log.Fatalf("end: %v", err)
			}
		}
		recs, err := rn.Backfill(ctx, from, to, cfg.Tunables.Seed)
		if err != nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Printf("ledger now %d rows in %s", len(recs), cfg.HistoryPath)
	case "refresh":
		if err := rn.Refresh(ctx, day); err != nil {
			log.Fatalf("refresh: %v", err)
		}
		log.Printf("refreshed %s and %s", cfg.SnapshotPath, cfg.HistoryPath)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.Usage()
		os.Exit(2)
	}
}

func parseDay(v string, fallback time.Time) (time.Time, error) {
	if v == "" {
		d := fallback
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(model.DateLayout, v)
}
