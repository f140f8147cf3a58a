package board

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"loadboard/internal/config"
	"loadboard/internal/sim"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Tunables.LoadsPerDay = 15
	cfg.HistoryPath = "" // in-memory store
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func seedHistory(t *testing.T, s *Server, days int) {
	t.Helper()
	end := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	rn := sim.New(s.Cfg, s.Store)
	if _, err := rn.Backfill(context.Background(), end.AddDate(0, 0, -(days-1)), end, s.Cfg.Tunables.Seed); err != nil {
		t.Fatalf("seed backfill: %v", err)
	}
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestSnapshotHandler(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.SnapshotHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot?date=2026-04-10", nil))
	if rr.Code != 200 {
		t.Fatalf("snapshot: got %d: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Day   string            `json:"day"`
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Day != "2026-04-10" || len(out.Items) != len(s.Cfg.Drivers) {
		t.Fatalf("unexpected snapshot payload: day=%s items=%d", out.Day, len(out.Items))
	}

	// CSV form
	rr = httptest.NewRecorder()
	s.SnapshotHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot?date=2026-04-10&format=csv", nil))
	if rr.Code != 200 || rr.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("csv snapshot: code=%d type=%s", rr.Code, rr.Header().Get("Content-Type"))
	}

	rr = httptest.NewRecorder()
	s.SnapshotHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/snapshot?date=nope", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad date: got %d", rr.Code)
	}
}

func TestHistoryHandlerPagingAndFilters(t *testing.T) {
	s := newTestServer(t)
	seedHistory(t, s, 3)

	rr := httptest.NewRecorder()
	s.HistoryHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/history?limit=5", nil))
	if rr.Code != 200 {
		t.Fatalf("history: got %d", rr.Code)
	}
	var page struct {
		Items      []map[string]any `json:"items"`
		NextCursor string           `json:"nextCursor"`
		Total      int              `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 5 || page.NextCursor == "" || page.Total <= 5 {
		t.Fatalf("unexpected page: items=%d next=%q total=%d", len(page.Items), page.NextCursor, page.Total)
	}

	rr = httptest.NewRecorder()
	s.HistoryHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/history?driverId=1&date=2026-04-10", nil))
	if rr.Code != 200 {
		t.Fatalf("filtered history: got %d", rr.Code)
	}
	var filtered struct {
		Items []struct {
			DriverID     int    `json:"driverId"`
			AssignedDate string `json:"assignedDate"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &filtered); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, it := range filtered.Items {
		if it.DriverID != 1 || it.AssignedDate != "2026-04-10" {
			t.Fatalf("filter leaked: %+v", it)
		}
	}
}

func TestHistoryStatsHandler(t *testing.T) {
	s := newTestServer(t)
	seedHistory(t, s, 2)
	rr := httptest.NewRecorder()
	s.HistoryStatsHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/history/stats", nil))
	if rr.Code != 200 {
		t.Fatalf("stats: got %d", rr.Code)
	}
	var out struct {
		Drivers []struct {
			DriverID int `json:"driverId"`
			Trips    int `json:"trips"`
		} `json:"drivers"`
		TotalTrips int `json:"totalTrips"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TotalTrips == 0 || len(out.Drivers) == 0 {
		t.Fatalf("expected aggregates, got %+v", out)
	}
}

func TestRoutesGeoHandler(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.RoutesGeoHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/routes/geo?date=2026-04-10", nil))
	if rr.Code != 200 {
		t.Fatalf("routes geo: got %d", rr.Code)
	}
	var out struct {
		Routes []struct {
			Pickup  [2]float64 `json:"pickup"`
			Dropoff [2]float64 `json:"dropoff"`
		} `json:"routes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, rt := range out.Routes {
		if rt.Pickup[0] == 0 || rt.Dropoff[0] == 0 {
			t.Fatalf("missing coordinates: %+v", rt)
		}
	}
}

func TestBackfillJobLifecycle(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"startDate":"2026-04-08","endDate":"2026-04-10"}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/backfill", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.BackfillHandler(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("backfill: got %d: %s", rr.Code, rr.Body.String())
	}
	var job Job
	if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil || job.ID == "" {
		t.Fatalf("bad job response: %v %s", err, rr.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		rr = httptest.NewRecorder()
		s.BackfillJobHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/backfill/"+job.ID, nil))
		if rr.Code != 200 {
			t.Fatalf("job status: got %d", rr.Code)
		}
		var st Job
		_ = json.Unmarshal(rr.Body.Bytes(), &st)
		if st.Status == "done" {
			if st.DaysDone != 3 || st.Rows == 0 {
				t.Fatalf("unexpected finished job: %+v", st)
			}
			break
		}
		if st.Status == "failed" {
			t.Fatalf("job failed: %s", st.Error)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not finish: %+v", st)
		}
		time.Sleep(10 * time.Millisecond)
	}

	res := s.Store.Read(context.Background())
	if len(res.Records) == 0 {
		t.Fatalf("backfill wrote nothing")
	}
}

func TestBackfillValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []string{
		`{"startDate":"2026-04-10","endDate":"2026-04-08"}`,
		`{"startDate":"nope","endDate":"2026-04-08"}`,
		`not json`,
	}
	for _, body := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/backfill", bytes.NewReader([]byte(body)))
		s.BackfillHandler(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: got %d", body, rr.Code)
		}
	}
}

func TestBackfillAuthAndRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.apiToken = "sekrit"
	body := func() *bytes.Reader {
		return bytes.NewReader([]byte(`{"startDate":"2026-04-10","endDate":"2026-04-10"}`))
	}

	rr := httptest.NewRecorder()
	s.BackfillHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/backfill", body()))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", rr.Code)
	}

	// exhausted limiter wins over everything after auth
	s.backfill = rate.NewLimiter(rate.Every(time.Hour), 1)
	req := httptest.NewRequest(http.MethodPost, "/v1/backfill", body())
	req.Header.Set("Authorization", "Bearer sekrit")
	rr = httptest.NewRecorder()
	s.BackfillHandler(rr, req)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("authorized: got %d: %s", rr.Code, rr.Body.String())
	}
	req = httptest.NewRequest(http.MethodPost, "/v1/backfill", body())
	req.Header.Set("Authorization", "Bearer sekrit")
	rr = httptest.NewRecorder()
	s.BackfillHandler(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("rate limit: got %d", rr.Code)
	}
}

func TestBackfillSingleFlight(t *testing.T) {
	s := newTestServer(t)
	// long-ish job
	first := httptest.NewRecorder()
	s.BackfillHandler(first, httptest.NewRequest(http.MethodPost, "/v1/backfill",
		bytes.NewReader([]byte(`{"startDate":"2025-01-01","endDate":"2026-04-10"}`))))
	if first.Code != http.StatusAccepted {
		t.Fatalf("first: got %d", first.Code)
	}
	second := httptest.NewRecorder()
	s.BackfillHandler(second, httptest.NewRequest(http.MethodPost, "/v1/backfill",
		bytes.NewReader([]byte(`{"startDate":"2026-04-10","endDate":"2026-04-10"}`))))
	if second.Code != http.StatusConflict && second.Code != http.StatusAccepted {
		t.Fatalf("second: got %d", second.Code)
	}
}

func TestUnknownJob(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.BackfillJobHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/backfill/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown job: got %d", rr.Code)
	}
}
