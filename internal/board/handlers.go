package board

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"loadboard/internal/ledger"
	"loadboard/internal/match"
	"loadboard/internal/metrics"
	"loadboard/internal/model"
	"loadboard/internal/sim"
)

// SnapshotHandler serves the latest-assignments view, built fresh from the
// requested day's pool (today by default). ?format=csv returns the flat file
// form.
func (s *Server) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	day, err := queryDay(r, "date", time.Now().UTC())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	rows, err := s.runner().BuildSnapshot(day)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Snapshot failed", err.Error(), r.URL.Path)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		_ = ledger.EncodeSnapshot(w, rows)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day.Format(model.DateLayout), "items": rows})
}

// HistoryHandler serves ledger rows with cursor paging and optional driverId
// and date filters.
func (s *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	res := s.Store.Read(r.Context())
	recs := res.Records

	if v := r.URL.Query().Get("driverId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid driverId", err.Error(), r.URL.Path)
			return
		}
		recs = filterRecords(recs, func(t model.TripRecord) bool { return t.DriverID == id })
	}
	if v := r.URL.Query().Get("date"); v != "" {
		recs = filterRecords(recs, func(t model.TripRecord) bool { return t.AssignedDate == v })
	}

	start := 0
	if c := r.URL.Query().Get("cursor"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid cursor", "", r.URL.Path)
			return
		}
		start = n
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if start > len(recs) {
		start = len(recs)
	}
	end := start + limit
	if end > len(recs) {
		end = len(recs)
	}
	next := ""
	if end < len(recs) {
		next = strconv.Itoa(end)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": recs[start:end], "nextCursor": next, "total": len(recs), "recovered": res.Recovered,
	})
}

// HistoryStatsHandler aggregates the ledger per driver.
func (s *Server) HistoryStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	res := s.Store.Read(r.Context())
	type agg struct {
		DriverID  int     `json:"driverId"`
		Trips     int     `json:"trips"`
		Miles     float64 `json:"miles"`
		Payout    float64 `json:"payout"`
		FuelCost  float64 `json:"fuelCost"`
		NetProfit float64 `json:"netProfit"`
	}
	byDriver := map[int]*agg{}
	for _, t := range res.Records {
		a := byDriver[t.DriverID]
		if a == nil {
			a = &agg{DriverID: t.DriverID}
			byDriver[t.DriverID] = a
		}
		a.Trips++
		a.Miles += t.Miles
		a.Payout += t.Payout
		a.FuelCost += t.FuelCost
		a.NetProfit += t.NetProfit
	}
	out := make([]*agg, 0, len(byDriver))
	for _, a := range byDriver {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	writeJSON(w, http.StatusOK, map[string]any{"drivers": out, "totalTrips": len(res.Records)})
}

// RoutesGeoHandler serves the per-driver pickup/dropoff coordinates of the
// latest snapshot, for map rendering.
func (s *Server) RoutesGeoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	day, err := queryDay(r, "date", time.Now().UTC())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	rows, err := s.runner().BuildSnapshot(day)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Snapshot failed", err.Error(), r.URL.Path)
		return
	}
	type route struct {
		DriverID int        `json:"driverId"`
		LoadID   string     `json:"loadId"`
		Pickup   [2]float64 `json:"pickup"`
		Dropoff  [2]float64 `json:"dropoff"`
	}
	items := []route{}
	for _, a := range rows {
		if a.AssignedLoadID == nil || a.PickupLat == nil || a.DropoffLat == nil {
			continue
		}
		items = append(items, route{
			DriverID: a.DriverID,
			LoadID:   *a.AssignedLoadID,
			Pickup:   [2]float64{*a.PickupLat, *a.PickupLon},
			Dropoff:  [2]float64{*a.DropoffLat, *a.DropoffLon},
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day.Format(model.DateLayout), "routes": items})
}

// RunStatsHandler exposes the in-memory matching stats for a simulated day.
func (s *Server) RunStatsHandler(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		writeProblem(w, http.StatusBadRequest, "date required", "", r.URL.Path)
		return
	}
	st, ok := match.GetStats(day)
	if !ok {
		writeProblem(w, http.StatusNotFound, "No stats for day", day, r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type backfillRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Seed      *int64 `json:"seed,omitempty"`
}

func (s *Server) validateBackfill(req backfillRequest) (start, end time.Time, err error) {
	start, err = time.Parse(model.DateLayout, req.StartDate)
	if err != nil {
		return start, end, fmt.Errorf("startDate: %w", err)
	}
	end, err = time.Parse(model.DateLayout, req.EndDate)
	if err != nil {
		return start, end, fmt.Errorf("endDate: %w", err)
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("endDate before startDate")
	}
	if end.Sub(start) > 366*24*time.Hour*10 {
		return start, end, fmt.Errorf("range exceeds 10 years")
	}
	return start, end, nil
}

// BackfillHandler starts a backfill job. One job runs at a time; progress
// streams via the broker under the returned job id.
func (s *Server) BackfillHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	if !s.authorized(r) {
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required", r.URL.Path)
		return
	}
	if !s.backfill.Allow() {
		writeProblem(w, http.StatusTooManyRequests, "Rate limited", "try again later", r.URL.Path)
		return
	}
	var req backfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error(), r.URL.Path)
		return
	}
	start, end, err := s.validateBackfill(req)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid range", err.Error(), r.URL.Path)
		return
	}
	seed := s.Cfg.Tunables.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeProblem(w, http.StatusConflict, "Backfill in progress", "", r.URL.Path)
		return
	}
	s.running = true
	job := &Job{
		ID:        uuid.New().String(),
		Status:    "running",
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Seed:      seed,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.runBackfill(job, start, end, seed)
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) runBackfill(job *Job, start, end time.Time, seed int64) {
	rn := s.runner()
	rn.OnProgress = func(p sim.Progress) {
		s.mu.Lock()
		job.DaysDone, job.DaysTotal, job.Rows = p.DaysDone, p.DaysTotal, p.LedgerTotal
		s.mu.Unlock()
		s.Broker.Publish(job.ID, SSEEvent{Type: "backfill.day", Data: map[string]any{
			"day": p.Day, "trips": p.Trips, "ledgerTotal": p.LedgerTotal,
			"daysDone": p.DaysDone, "daysTotal": p.DaysTotal,
		}})
	}
	_, err := rn.Backfill(context.Background(), start, end, seed)

	s.mu.Lock()
	if err != nil {
		job.Status = "failed"
		job.Error = err.Error()
	} else {
		job.Status = "done"
	}
	s.running = false
	s.mu.Unlock()
	s.Broker.Publish(job.ID, SSEEvent{Type: "backfill." + job.Status, Data: map[string]any{
		"jobId": job.ID, "error": job.Error,
	}})
}

// BackfillJobHandler serves /v1/backfill/{id} and /v1/backfill/{id}/events/stream.
func (s *Server) BackfillJobHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/backfill/")
	parts := strings.Split(rest, "/")
	id := parts[0]

	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Unknown job", id, r.URL.Path)
		return
	}

	if len(parts) >= 3 && parts[1] == "events" && parts[2] == "stream" {
		s.streamJob(w, r, job)
		return
	}
	s.mu.Lock()
	cp := *job
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) streamJob(w http.ResponseWriter, r *http.Request, job *Job) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := s.Broker.Subscribe(job.ID)
	defer s.Broker.Unsubscribe(job.ID, ch)
	// initial heartbeat
	fmt.Fprintf(w, "event: heartbeat\n")
	fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", job.ID, time.Now().Format(time.RFC3339))
	flusher.Flush()
	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
			if evt.Type == "backfill.done" || evt.Type == "backfill.failed" {
				return
			}
		case <-time.After(15 * time.Second):
			fmt.Fprintf(w, "event: heartbeat\n")
			fmt.Fprintf(w, "data: {\"jobId\":\"%s\",\"ts\":\"%s\"}\n\n", job.ID, time.Now().Format(time.RFC3339))
			flusher.Flush()
		}
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ReadyHandler reports readiness: the ledger backend must be reachable.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	res := s.Store.Read(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok", "ledgerRows": len(res.Records), "recovered": res.Recovered,
	})
}

func init() { metrics.RegisterDefault() }

func queryDay(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		d := fallback
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(model.DateLayout, v)
}

func filterRecords(recs []model.TripRecord, keep func(model.TripRecord) bool) []model.TripRecord {
	out := recs[:0:0]
	for _, t := range recs {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
