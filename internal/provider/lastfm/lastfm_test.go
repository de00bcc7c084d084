package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	norm, err := metadata.NewNormalizer(nil, nil)
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	c := New("test-key", norm, logger.New(false), Options{
		Timeout:  5 * time.Second,
		CacheTTL: time.Minute,
	})
	c.apiURL = apiURL
	return c
}

const trackInfoJSON = `{
  "track": {
    "name": "Treppenhaus",
    "listeners": "48211",
    "playcount": "391024",
    "artist": {"name": "LEA"},
    "album": {
      "title": "Treppenhaus",
      "image": [
        {"#text": "https://images.test/s.jpg", "size": "small"},
        {"#text": "https://images.test/m.jpg", "size": "medium"},
        {"#text": "https://images.test/xl.jpg", "size": "extralarge"}
      ]
    },
    "toptags": {
      "tag": [
        {"name": "german pop"},
        {"name": "pop"},
        {"name": "seen live"},
        {"name": "singer-songwriter"},
        {"name": "female vocalists"},
        {"name": "sixth tag over the cap"}
      ]
    },
    "wiki": {
      "summary": "Treppenhaus is the fourth studio album by LEA. <a href=\"https://last.fm/x\">Read more on Last.fm</a>."
    }
  }
}`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("method") != "track.getInfo" {
			t.Errorf("method = %q", q.Get("method"))
		}
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		if q.Get("autocorrect") != "1" {
			t.Errorf("autocorrect = %q", q.Get("autocorrect"))
		}
		fmt.Fprint(w, trackInfoJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	frag := c.Fetch(context.Background(), "Treppenhaus", "LEA")
	if frag.Empty() {
		t.Fatal("expected a non-empty fragment")
	}

	if frag.Title != "Treppenhaus" {
		t.Errorf("Title = %q", frag.Title)
	}
	if frag.Artist != "LEA" {
		t.Errorf("Artist = %q", frag.Artist)
	}
	if frag.Album != "Treppenhaus" {
		t.Errorf("Album = %q", frag.Album)
	}
	if frag.Listeners != 48211 || frag.Playcount != 391024 {
		t.Errorf("counts = %d/%d", frag.Listeners, frag.Playcount)
	}
	if len(frag.Tags) != 5 {
		t.Errorf("Tags = %v, want the first 5", frag.Tags)
	}
	if frag.CoverURL != "https://images.test/xl.jpg" {
		t.Errorf("CoverURL = %q, want the largest image", frag.CoverURL)
	}
	if frag.Wiki != "Treppenhaus is the fourth studio album by LEA." {
		t.Errorf("Wiki = %q, boilerplate not stripped", frag.Wiki)
	}
	if frag.Genre != "" {
		t.Errorf("Genre must stay unset, got %q", frag.Genre)
	}
}

func TestFetchTrackNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 6, "message": "Track not found"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	if frag := c.Fetch(context.Background(), "Nonexistent", "Nobody"); !frag.Empty() {
		t.Errorf("expected empty fragment for a missing track, got %+v", frag)
	}
}

func TestFetchAPIErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": 10, "message": "Invalid API key"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	if frag := c.Fetch(context.Background(), "Treppenhaus", "LEA"); !frag.Empty() {
		t.Error("an API error must degrade to an empty fragment")
	}
}

func TestFetchCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, trackInfoJSON)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	c.Fetch(context.Background(), "Treppenhaus", "LEA")
	c.Fetch(context.Background(), "treppenhaus", "lea")

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want 1", got)
	}
}

func TestStripWikiBoilerplate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Some summary. <a href="x">Read more</a>.`, "Some summary."},
		{"No link at all", "No link at all"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripWikiBoilerplate(tt.in); got != tt.want {
			t.Errorf("stripWikiBoilerplate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
