package board

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type  string         `json:"type"`
	JobID string         `json:"jobId,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// ProgressWSHandler streams backfill progress for ?jobId=... over a
// websocket. The same events flow over the SSE endpoint; this exists for
// clients that already hold a socket open.
func (s *Server) ProgressWSHandler(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		writeProblem(w, http.StatusBadRequest, "jobId required", "", r.URL.Path)
		return
	}
	s.mu.Lock()
	_, known := s.jobs[jobID]
	s.mu.Unlock()
	if !known {
		writeProblem(w, http.StatusNotFound, "Unknown job", jobID, r.URL.Path)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 16)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	// drain client frames so pongs are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ch := s.Broker.Subscribe(jobID)
	defer s.Broker.Unsubscribe(jobID, ch)

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case evt := <-ch:
			if err := conn.WriteJSON(wsMessage{Type: evt.Type, JobID: jobID, Data: evt.Data}); err != nil {
				return
			}
			if evt.Type == "backfill.done" || evt.Type == "backfill.failed" {
				return
			}
		}
	}
}
