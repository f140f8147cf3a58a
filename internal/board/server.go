package board

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"loadboard/internal/config"
	"loadboard/internal/ledger"
	"loadboard/internal/sim"
)

// Server exposes the simulation over HTTP: the latest snapshot, the trip
// ledger, and backfill jobs with streamed progress.
type Server struct {
	Cfg    config.Config
	Store  ledger.Store
	Broker EventBroker

	apiToken string
	backfill *rate.Limiter

	mu      sync.Mutex
	jobs    map[string]*Job
	running bool
}

// Job tracks one backfill run.
type Job struct {
	ID        string `json:"id"`
	Status    string `json:"status"` // running, done, failed
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Seed      int64  `json:"seed"`
	DaysDone  int    `json:"daysDone"`
	DaysTotal int    `json:"daysTotal"`
	Rows      int    `json:"rows"`
	Error     string `json:"error,omitempty"`
	StartedAt string `json:"startedAt"`
}

// NewServer creates a Server. The history backend follows the configured
// path; an empty path selects the in-memory store. The broker is Redis-backed
// when REDIS_URL is set, in-memory otherwise.
func NewServer(cfg config.Config) (*Server, error) {
	var st ledger.Store
	if strings.TrimSpace(cfg.HistoryPath) == "" {
		st = ledger.NewMemory()
	} else {
		st = ledger.NewFile(cfg.HistoryPath)
	}
	var broker EventBroker
	if os.Getenv("REDIS_URL") != "" {
		if rb, err := NewRedisBroker(); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	return &Server{
		Cfg:      cfg,
		Store:    st,
		Broker:   broker,
		apiToken: os.Getenv("LOADBOARD_API_TOKEN"),
		// backfills are heavy; allow a short burst, then one per 30s
		backfill: rate.NewLimiter(rate.Every(30*time.Second), 2),
		jobs:     map[string]*Job{},
	}, nil
}

func (s *Server) runner() *sim.Runner { return sim.New(s.Cfg, s.Store) }

// authorized gates mutating endpoints. With no token configured everything
// is allowed (dev mode), matching the rest of the env-driven setup.
func (s *Server) authorized(r *http.Request) bool {
	if s.apiToken == "" {
		return true
	}
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return false
	}
	return strings.TrimSpace(authz[len("Bearer "):]) == s.apiToken
}
