package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadboard/internal/board"
	"loadboard/internal/config"
	"loadboard/internal/metrics"
	"loadboard/internal/refresh"
	"loadboard/internal/sim"
)

func main() {
	cfg, err := config.Load(os.Getenv("LOADBOARD_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	srv, err := board.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Snapshot + map data
	mux.HandleFunc("/v1/snapshot", srv.SnapshotHandler)
	mux.HandleFunc("/v1/routes/geo", srv.RoutesGeoHandler)

	// Ledger
	mux.HandleFunc("/v1/history", srv.HistoryHandler)
	mux.HandleFunc("/v1/history/stats", srv.HistoryStatsHandler)
	mux.HandleFunc("/v1/run/stats", srv.RunStatsHandler)

	// Backfill jobs
	mux.HandleFunc("/v1/backfill", srv.BackfillHandler)
	mux.HandleFunc("/v1/backfill/", srv.BackfillJobHandler) // includes /events/stream
	mux.HandleFunc("/v1/progress/ws", srv.ProgressWSHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Prometheus
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           board.Middleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Daily refresh keeps the snapshot and ledger current
	worker := refresh.NewWorker(sim.New(cfg, srv.Store))
	worker.Start()

	log.Printf("board listening on %s", addr)
	if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
