package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"ytcurator/internal/metadata"
)

const wsPingInterval = 30 * time.Second

// The API binds to localhost by default; cross-origin upgrades are allowed so
// a frontend served from another port can subscribe.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsEvent is one push frame: the job snapshot, plus the genre resolver
// counters once the reconciliation has reached a terminal state.
type wsEvent struct {
	Event      string               `json:"event"` // "snapshot", "update" or "done"
	Job        JobResponse          `json:"job"`
	GenreStats *metadata.GenreStats `json:"genre_stats,omitempty"`
}

// handleWebSocket streams reconciliation updates for one job until it reaches
// a terminal state or the client goes away.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Subscribe before reading the snapshot so no update can slip between.
	updates := s.jobMgr.Subscribe(jobID)
	defer s.jobMgr.Unsubscribe(jobID, updates)

	if job, err := s.jobMgr.GetJob(jobID); err == nil {
		event := "snapshot"
		if isTerminal(job.Status) {
			event = "done"
		}
		if s.pushJob(conn, event, job) != nil || event == "done" {
			return
		}
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			event := "update"
			if isTerminal(job.Status) {
				event = "done"
			}
			if err := s.pushJob(conn, event, job); err != nil {
				s.logger.Debug("WebSocket push failed for %s: %v", jobID, err)
				return
			}
			if event == "done" {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// pushJob writes one frame. Terminal frames carry the resolver counters so a
// client can show running genre statistics without a second request.
func (s *Server) pushJob(conn *websocket.Conn, event string, job *Job) error {
	ev := wsEvent{Event: event, Job: *s.jobToResponse(job)}
	if event == "done" {
		stats := s.genres.Stats()
		ev.GenreStats = &stats
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func isTerminal(status JobStatus) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
