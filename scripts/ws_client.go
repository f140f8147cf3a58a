// Package main runs a demo WebSocket client for backfill progress.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type  string         `json:"type"`
	JobID string         `json:"jobId,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Kick off a short backfill
	end := time.Now().UTC().Format("2006-01-02")
	start := time.Now().UTC().AddDate(0, 0, -13).Format("2006-01-02")
	body := []byte(fmt.Sprintf(`{"startDate":%q,"endDate":%q}`, start, end))
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/backfill", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if tok := os.Getenv("LOADBOARD_API_TOKEN"); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var job struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		log.Fatal(err)
	}
	if job.ID == "" {
		log.Fatalf("no job started (status %d)", resp.StatusCode)
	}
	log.Printf("Job ID: %s", job.ID)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/progress/ws", RawQuery: "jobId=" + job.ID}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	for {
		var m wsMessage
		if err := c.ReadJSON(&m); err != nil {
			log.Printf("read: %v", err)
			return
		}
		b, _ := json.Marshal(m.Data)
		log.Printf("WS <- %s: %s", m.Type, string(b))
		if m.Type == "backfill.done" || m.Type == "backfill.failed" {
			return
		}
	}
}
