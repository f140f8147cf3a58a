package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordRefresher struct {
	mu   sync.Mutex
	days []time.Time
	err  error
}

func (r *recordRefresher) Refresh(ctx context.Context, day time.Time) error {
	r.mu.Lock()
	r.days = append(r.days, day)
	r.mu.Unlock()
	return r.err
}

func TestWorkerProcessOnce(t *testing.T) {
	rr := &recordRefresher{}
	w := &Worker{Runner: rr, Interval: time.Hour, Stop: make(chan struct{})}
	w.processOnce()
	if len(rr.days) != 1 {
		t.Fatalf("expected one refresh, got %d", len(rr.days))
	}
	d := rr.days[0]
	if d.Hour() != 0 || d.Minute() != 0 || d.Location() != time.UTC {
		t.Fatalf("expected midnight UTC day, got %v", d)
	}
}

func TestWorkerSwallowsErrors(t *testing.T) {
	rr := &recordRefresher{err: errors.New("boom")}
	w := &Worker{Runner: rr, Interval: time.Hour, Stop: make(chan struct{})}
	w.processOnce() // must not panic or propagate
	if len(rr.days) != 1 {
		t.Fatalf("refresh should still have been attempted")
	}
}

func TestWorkerStartStop(t *testing.T) {
	rr := &recordRefresher{}
	w := &Worker{Runner: rr, Interval: 10 * time.Millisecond, Stop: make(chan struct{})}
	w.Start()
	time.Sleep(35 * time.Millisecond)
	close(w.Stop)
	rr.mu.Lock()
	n := len(rr.days)
	rr.mu.Unlock()
	if n < 2 {
		t.Fatalf("expected startup run plus ticks, got %d", n)
	}
}
