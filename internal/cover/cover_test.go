package cover

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

type stubProvider struct {
	name     string
	coverURL string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, string, string) metadata.Fragment {
	return metadata.Fragment{CoverURL: s.coverURL}
}

func makeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

func serveImage(t *testing.T, data []byte, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Write(data)
	}))
}

func newTestResolver(providers []metadata.Provider) *Resolver {
	return New(providers, logger.New(false), Options{
		MinResolution: 300,
		MaxResolution: 1000,
		Timeout:       5 * time.Second,
		CacheTTL:      time.Minute,
	})
}

func TestFetchRejectsTooSmall(t *testing.T) {
	var hits int32
	srv := serveImage(t, makeJPEG(t, 200, 200), &hits)
	defer srv.Close()

	r := newTestResolver([]metadata.Provider{&stubProvider{name: "p", coverURL: srv.URL}})

	if data := r.Fetch(context.Background(), "Title", "Artist", "Album"); data != nil {
		t.Error("expected nil for an image below the minimum resolution")
	}
}

func TestFetchPassesThroughInBoundsJPEG(t *testing.T) {
	original := makeJPEG(t, 500, 500)
	var hits int32
	srv := serveImage(t, original, &hits)
	defer srv.Close()

	r := newTestResolver([]metadata.Provider{&stubProvider{name: "p", coverURL: srv.URL}})

	data := r.Fetch(context.Background(), "Title", "Artist", "Album")
	if !bytes.Equal(data, original) {
		t.Error("an in-bounds JPEG must pass through unmodified")
	}
}

func TestFetchDownscalesOversized(t *testing.T) {
	var hits int32
	srv := serveImage(t, makeJPEG(t, 1400, 1400), &hits)
	defer srv.Close()

	r := newTestResolver([]metadata.Provider{&stubProvider{name: "p", coverURL: srv.URL}})

	data := r.Fetch(context.Background(), "Title", "Artist", "Album")
	if data == nil {
		t.Fatal("expected processed cover bytes")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	b := img.Bounds()
	if b.Dx() > 1000 || b.Dy() > 1000 {
		t.Errorf("dimensions %dx%d exceed the maximum", b.Dx(), b.Dy())
	}
}

func TestFetchConvertsPNG(t *testing.T) {
	var hits int32
	srv := serveImage(t, makePNG(t, 500, 500), &hits)
	defer srv.Close()

	r := newTestResolver([]metadata.Provider{&stubProvider{name: "p", coverURL: srv.URL}})

	data := r.Fetch(context.Background(), "Title", "Artist", "Album")
	if data == nil {
		t.Fatal("expected processed cover bytes")
	}

	_, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("result not decodable: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg after conversion", format)
	}
}

func TestFetchCaches(t *testing.T) {
	var hits int32
	srv := serveImage(t, makeJPEG(t, 500, 500), &hits)
	defer srv.Close()

	r := newTestResolver([]metadata.Provider{&stubProvider{name: "p", coverURL: srv.URL}})

	first := r.Fetch(context.Background(), "Title", "Artist", "Album")
	second := r.Fetch(context.Background(), "title ", "ARTIST", "Album")

	if !bytes.Equal(first, second) {
		t.Error("cache hit returned different bytes")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("server hits = %d, want 1 (second call cached)", hits)
	}
}

func TestFetchProviderPriority(t *testing.T) {
	var hits int32
	srv := serveImage(t, makeJPEG(t, 500, 500), &hits)
	defer srv.Close()

	// First provider has no art; the loop moves on.
	r := newTestResolver([]metadata.Provider{
		&stubProvider{name: "empty"},
		&stubProvider{name: "full", coverURL: srv.URL},
	})

	if data := r.Fetch(context.Background(), "Title", "Artist", "Album"); data == nil {
		t.Error("expected the second provider's cover")
	}
}

func TestFetchBadDownloadMovesOn(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	var hits int32
	good := serveImage(t, makeJPEG(t, 500, 500), &hits)
	defer good.Close()

	r := newTestResolver([]metadata.Provider{
		&stubProvider{name: "bad", coverURL: bad.URL},
		&stubProvider{name: "good", coverURL: good.URL},
	})

	if data := r.Fetch(context.Background(), "Title", "Artist", "Album"); data == nil {
		t.Error("expected fallback to the next provider after a failed download")
	}
}

func TestFetchURL(t *testing.T) {
	var hits int32
	srv := serveImage(t, makePNG(t, 400, 400), &hits)
	defer srv.Close()

	r := newTestResolver(nil)

	data := r.FetchURL(context.Background(), srv.URL)
	if data == nil {
		t.Fatal("expected processed thumbnail bytes")
	}
	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "jpeg" {
		t.Errorf("thumbnail not normalized to jpeg: format=%q err=%v", format, err)
	}

	if r.FetchURL(context.Background(), "") != nil {
		t.Error("empty URL must yield nil")
	}
}
