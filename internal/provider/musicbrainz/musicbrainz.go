// Package musicbrainz implements the discography-catalog provider client.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ytcurator/internal/cache"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

// Client is a MusicBrainz Web API client that implements metadata.Provider.
type Client struct {
	httpClient *http.Client
	apiURL     string
	coverURL   string
	userAgent  string

	norm    *metadata.Normalizer
	scoring metadata.Scoring
	timeout time.Duration
	cache   *cache.Cache[metadata.Fragment]
	log     *logger.Logger

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// Options carries the tunable parts of the client.
type Options struct {
	MinScore float64       // weighted-score acceptance threshold
	Timeout  time.Duration // per-call budget
	CacheTTL time.Duration
}

// New creates a new MusicBrainz client.
func New(norm *metadata.Normalizer, log *logger.Logger, opts Options) *Client {
	if opts.MinScore <= 0 {
		opts.MinScore = 0.6
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiURL:     "https://musicbrainz.org/ws/2",
		coverURL:   "https://coverartarchive.org",
		userAgent:  "ytcurator/1.0",
		norm:       norm,
		scoring: metadata.Scoring{
			// Title carries most of the confidence; an exact artist match
			// earns a flat bonus instead of a relaxed tier.
			TitleWeight:      0.7,
			ArtistWeight:     0.3,
			Threshold:        opts.MinScore,
			ExactArtistBonus: 0.1,
		},
		timeout:     opts.Timeout,
		cache:       cache.New[metadata.Fragment](opts.CacheTTL),
		minInterval: time.Second,
		log:         log,
	}
}

func (c *Client) Name() string { return "musicbrainz" }

// Fetch resolves the best recording match for the given title/artist pair.
// All failures degrade to an empty fragment; nothing propagates.
func (c *Client) Fetch(ctx context.Context, title, artist string) metadata.Fragment {
	// An absent artist hint stays absent; the sentinel would skew scoring.
	cleanArtist := ""
	if strings.TrimSpace(artist) != "" {
		cleanArtist = c.norm.CleanArtist(artist)
	}
	cleanTitle := c.norm.CleanTitle(title, cleanArtist)

	key := cache.Key(cleanArtist, cleanTitle)
	if frag, ok := c.cache.Get(key); ok {
		c.log.Debug("musicbrainz cache hit for %q", key)
		return frag
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	frag, err := c.fetch(ctx, cleanTitle, cleanArtist)
	if err != nil {
		c.log.Warn("musicbrainz lookup failed for %q - %q: %v", cleanArtist, cleanTitle, err)
		return metadata.Fragment{}
	}

	c.cache.Set(key, frag)
	return frag
}

func (c *Client) fetch(ctx context.Context, cleanTitle, cleanArtist string) (metadata.Fragment, error) {
	var recordings []recording
	var err error

	if cleanArtist != "" {
		query := fmt.Sprintf("recording:%q AND artist:%q", cleanTitle, cleanArtist)
		recordings, err = c.search(ctx, query)
		if err != nil {
			return metadata.Fragment{}, err
		}
		if len(recordings) == 0 {
			c.log.Debug("musicbrainz: no results for combined query, retrying title-only")
		}
	}

	// Artist-filter relaxation; also the only query without an artist hint.
	if len(recordings) == 0 {
		recordings, err = c.search(ctx, fmt.Sprintf("%q", cleanTitle))
		if err != nil {
			return metadata.Fragment{}, err
		}
	}
	if len(recordings) == 0 {
		return metadata.Fragment{}, nil
	}

	candidates := make([]metadata.Candidate, len(recordings))
	for i, rec := range recordings {
		candidates[i] = metadata.Candidate{
			Title:  rec.Title,
			Artist: joinArtistCredits(rec.ArtistCredit),
		}
	}

	best, ok := metadata.BestMatch(c.scoring, cleanTitle, cleanArtist, candidates)
	if !ok {
		c.log.Debug("musicbrainz: no candidate cleared the threshold for %q - %q", cleanArtist, cleanTitle)
		return metadata.Fragment{}, nil
	}

	rec := recordings[best.Index]
	c.log.Debug("musicbrainz: matched %q by %q (score %.2f)", rec.Title, candidates[best.Index].Artist, best.Weighted)
	return c.buildFragment(ctx, rec), nil
}

// search queries the recording search endpoint, honoring the 1 req/s rate
// limit and retrying once on 429/503.
func (c *Client) search(ctx context.Context, query string) ([]recording, error) {
	c.rateLimit()

	reqURL := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=10", c.apiURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create musicbrainz request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("musicbrainz search returned %d: %s", resp.StatusCode, body)
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode musicbrainz response: %w", err)
	}
	return searchResp.Recordings, nil
}

// buildFragment extracts metadata from the matched recording, preferring data
// already on the match over further network calls. Only the album artist may
// need a release-detail call.
func (c *Client) buildFragment(ctx context.Context, rec recording) metadata.Fragment {
	frag := metadata.Fragment{
		Title:  rec.Title,
		Artist: joinArtistCredits(rec.ArtistCredit),
	}

	if len(rec.Releases) > 0 {
		rel := pickBestRelease(rec.Releases)
		frag.Album = rel.Title
		if rel.ReleaseGroup.Title != "" {
			frag.Album = rel.ReleaseGroup.Title
		}
		frag.ReleaseID = rel.ID
		frag.CoverURL = fmt.Sprintf("%s/release/%s/front-500", c.coverURL, rel.ID)

		date := rec.FirstReleaseDate
		if date == "" {
			date = rel.Date
		}
		frag.Year = parseYear(date)

		for _, t := range rel.ReleaseGroup.Tags {
			frag.Tags = append(frag.Tags, t.Name)
		}

		if len(rel.Media) > 0 && len(rel.Media[0].Track) > 0 {
			if n, err := strconv.Atoi(rel.Media[0].Track[0].Number); err == nil {
				frag.TrackNumber = n
			}
		}

		if len(rel.ArtistCredit) > 0 {
			frag.AlbumArtist = joinArtistCredits(rel.ArtistCredit)
		} else if rel.ID != "" {
			frag.AlbumArtist = c.fetchAlbumArtist(ctx, rel.ID)
		}
	}

	// Genre stays unset: the genre resolver works off tags only.
	return frag
}

// fetchAlbumArtist makes the targeted release-detail call when the cheap path
// did not carry the album artist. Failure just leaves the field empty.
func (c *Client) fetchAlbumArtist(ctx context.Context, releaseID string) string {
	c.rateLimit()

	reqURL := fmt.Sprintf("%s/release/%s?fmt=json&inc=artist-credits", c.apiURL, url.PathEscape(releaseID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		c.log.Debug("musicbrainz: release detail call failed for %s: %v", releaseID, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var rel release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return ""
	}
	return joinArtistCredits(rel.ArtistCredit)
}

// rateLimit enforces MusicBrainz's 1 request/second limit. Each caller
// reserves the next slot under the lock before sleeping, so concurrent
// callers queue behind each other instead of bursting.
func (c *Client) rateLimit() {
	c.mu.Lock()
	now := time.Now()
	next := c.lastRequest.Add(c.minInterval)
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()

	if wait := next.Sub(now); wait > 0 {
		time.Sleep(wait)
	}
}

// doWithRetry executes the request, retrying once on 429/503 with backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		resp.Body.Close()
		retryAfter := 2
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if parsed, err := strconv.Atoi(ra); err == nil {
				retryAfter = parsed
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(retryAfter) * time.Second):
		}

		c.mu.Lock()
		c.lastRequest = time.Now()
		c.mu.Unlock()
		retry := req.Clone(ctx)
		return c.httpClient.Do(retry)
	}

	return resp, nil
}

func joinArtistCredits(credits []artistCredit) string {
	var parts []string
	for _, ac := range credits {
		parts = append(parts, ac.Artist.Name)
	}
	return strings.Join(parts, ", ")
}

// pickBestRelease selects the most appropriate release for tagging.
// Prefers: Official status, Album type, no secondary types, earliest date.
func pickBestRelease(releases []release) release {
	best := releases[0]
	bestScore := releaseScore(best)

	for _, rel := range releases[1:] {
		s := releaseScore(rel)
		if s > bestScore || (s == bestScore && rel.Date != "" && (best.Date == "" || rel.Date < best.Date)) {
			best = rel
			bestScore = s
		}
	}
	return best
}

func releaseScore(rel release) int {
	score := 0

	if rel.Status == "Official" {
		score += 4
	}

	if rel.ReleaseGroup.PrimaryType == "Album" {
		score += 2
	}

	if len(rel.ReleaseGroup.SecondaryTypes) == 0 {
		score += 1
	}

	return score
}

func parseYear(date string) int {
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return 0
}

// MusicBrainz API response types

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	FirstReleaseDate string         `json:"first-release-date"`
	ArtistCredit     []artistCredit `json:"artist-credit"`
	Releases         []release      `json:"releases"`
}

type artistCredit struct {
	Artist artistInfo `json:"artist"`
}

type artistInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Status       string         `json:"status"`
	Date         string         `json:"date"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	ReleaseGroup releaseGroup   `json:"release-group"`
	Media        []media        `json:"media"`
}

type releaseGroup struct {
	Title          string   `json:"title"`
	PrimaryType    string   `json:"primary-type"`
	SecondaryTypes []string `json:"secondary-types"`
	Tags           []tag    `json:"tags"`
}

type tag struct {
	Name string `json:"name"`
}

type media struct {
	Track []track `json:"track"`
}

type track struct {
	Number string `json:"number"`
}
