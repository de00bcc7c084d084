package web

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytcurator/internal/metadata"
)

func TestWebSocketRequiresJobID(t *testing.T) {
	ts, _ := newTestServer(t, metadata.Fragment{})

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketStreamsUntilDone(t *testing.T) {
	ts, _ := newTestServer(t, metadata.Fragment{
		Title:  "Mein Block",
		Artist: "Ski Aggu",
		Tags:   []string{"deutschrap"},
	})

	job := postReconcile(t, ts, ReconcileRequest{
		Title:    "Mein Block",
		Uploader: "Ski Aggu",
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?job_id=" + job.ID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var done wsEvent
	for {
		var ev wsEvent
		require.NoError(t, conn.ReadJSON(&ev))
		require.Equal(t, job.ID, ev.Job.ID)
		if ev.Event == "done" {
			done = ev
			break
		}
		require.Nil(t, ev.GenreStats, "counters belong to the terminal frame only")
	}

	require.Equal(t, StatusCompleted, done.Job.Status)
	require.NotNil(t, done.Job.Result)
	assert.Equal(t, "Mein Block", done.Job.Result.Title)
	assert.Equal(t, "Ski Aggu", done.Job.Result.Artist)

	require.NotNil(t, done.GenreStats)
	assert.GreaterOrEqual(t, done.GenreStats.Processed, 1)
	assert.GreaterOrEqual(t, done.GenreStats.Mapped, 1)
}
