package refresh

import (
	"context"
	"log"
	"os"
	"time"
)

// Refresher is the slice of the simulation runner the worker needs.
type Refresher interface {
	Refresh(ctx context.Context, day time.Time) error
}

// Worker periodically re-runs the daily refresh (snapshot rewrite plus
// single-day history update, or an initial backfill). The cadence mirrors the
// cron-driven entrypoint the simulation was originally run from.
type Worker struct {
	Runner   Refresher
	Interval time.Duration
	Stop     chan struct{}
}

func NewWorker(r Refresher) *Worker {
	interval := 24 * time.Hour
	if v := os.Getenv("LOADBOARD_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}
	return &Worker{Runner: r, Interval: interval, Stop: make(chan struct{})}
}

func (w *Worker) Start() {
	go func() {
		// run once at startup, then on the ticker
		w.processOnce()
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.processOnce()
			}
		}
	}()
}

func (w *Worker) processOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := w.Runner.Refresh(ctx, day); err != nil {
		log.Printf("refresh failed: %v", err)
	}
}
