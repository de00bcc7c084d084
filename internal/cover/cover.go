// Package cover resolves, validates and normalizes cover art for tracks.
package cover

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png" // register PNG decoding
	"io"
	"net/http"
	"time"

	"github.com/nfnt/resize"

	"ytcurator/internal/cache"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

const jpegQuality = 90

// Resolver queries the metadata providers for cover art in a fixed priority
// order, validates and normalizes the image, and caches the result. The
// providers' own TTL caches make the repeat metadata lookups cheap.
type Resolver struct {
	providers  []metadata.Provider // cover priority order, not merge order
	httpClient *http.Client
	cache      *cache.Cache[[]byte]
	log        *logger.Logger

	minRes int
	maxRes int
}

// Options carries the tunable parts of the resolver.
type Options struct {
	MinResolution int // reject images smaller than this on either axis
	MaxResolution int // downscale images larger than this on either axis
	Timeout       time.Duration
	CacheTTL      time.Duration
}

// New creates a Resolver that tries providers in the given order.
func New(providers []metadata.Provider, log *logger.Logger, opts Options) *Resolver {
	if opts.MinResolution <= 0 {
		opts.MinResolution = 300
	}
	if opts.MaxResolution <= 0 {
		opts.MaxResolution = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Resolver{
		providers:  providers,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      cache.New[[]byte](opts.CacheTTL),
		log:        log,
		minRes:     opts.MinResolution,
		maxRes:     opts.MaxResolution,
	}
}

// Fetch returns processed cover bytes for the track, or nil when no provider
// yields a usable image. A validation failure at one provider just moves the
// loop to the next one.
func (r *Resolver) Fetch(ctx context.Context, title, artist, album string) []byte {
	key := cache.Key(artist, title, album)
	if data, ok := r.cache.Get(key); ok {
		r.log.Debug("cover cache hit for %q", key)
		return data
	}

	for _, p := range r.providers {
		frag := p.Fetch(ctx, title, artist)
		if frag.CoverURL == "" {
			continue
		}

		data, err := r.download(ctx, frag.CoverURL)
		if err != nil {
			r.log.Warn("cover download from %s failed: %v", p.Name(), err)
			continue
		}

		processed, err := r.process(data)
		if err != nil {
			r.log.Debug("cover from %s rejected: %v", p.Name(), err)
			continue
		}

		r.log.Info("Cover resolved via %s for %q - %q", p.Name(), artist, title)
		r.cache.Set(key, processed)
		return processed
	}

	r.log.Debug("no usable cover for %q - %q", artist, title)
	return nil
}

// FetchURL downloads and processes a single image URL through the same
// validation pipeline. Used for the low-confidence video-thumbnail fallback,
// which only runs after every provider came up empty.
func (r *Resolver) FetchURL(ctx context.Context, imageURL string) []byte {
	if imageURL == "" {
		return nil
	}

	data, err := r.download(ctx, imageURL)
	if err != nil {
		r.log.Warn("thumbnail download failed: %v", err)
		return nil
	}

	processed, err := r.process(data)
	if err != nil {
		r.log.Debug("thumbnail rejected: %v", err)
		return nil
	}
	return processed
}

func (r *Resolver) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}
	req.Header.Set("User-Agent", "ytcurator/1.0")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover download returned %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// process validates the image (JPEG or PNG, minimum resolution), downscales
// anything above the maximum resolution, and re-encodes to baseline JPEG.
// A JPEG already within bounds passes through untouched.
func (r *Resolver) process(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("not a decodable image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < r.minRes || h < r.minRes {
		return nil, fmt.Errorf("resolution %dx%d below minimum %d", w, h, r.minRes)
	}

	resized := false
	if w > r.maxRes || h > r.maxRes {
		img = resize.Thumbnail(uint(r.maxRes), uint(r.maxRes), img, resize.Lanczos3)
		resized = true
	}

	if !resized && format == "jpeg" {
		return data, nil
	}

	// PNG (or anything resized) gets flattened onto an opaque background and
	// re-encoded, so downstream embedding always sees JPEG.
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	flat := image.NewRGBA(img.Bounds())
	draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}
	return buf.Bytes(), nil
}
