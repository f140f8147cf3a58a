package ledger

import (
	"context"
	"sync"

	"loadboard/internal/model"
)

// Memory is an in-memory ledger store used by tests and by the board server
// when no history path is configured.
type Memory struct {
	mu      sync.Mutex
	records []model.TripRecord
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Read(ctx context.Context) ReadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		return ReadResult{Recovered: true, Reason: "no ledger yet"}
	}
	out := make([]model.TripRecord, len(m.records))
	copy(out, m.records)
	return ReadResult{Records: out}
}

func (m *Memory) Write(ctx context.Context, records []model.TripRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make([]model.TripRecord, len(records))
	copy(m.records, records)
	return nil
}
