// Package lastfm implements the scrobble-catalog provider client.
//
// Unlike the search-based catalogs this one looks a track up by its exact
// (artist, title) pair and relies on the service's own fuzzy matching. It
// supplies tags, listener counts and a wiki summary; it never fills Genre,
// since a tag cloud is not a single genre.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ytcurator/internal/cache"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

const maxTags = 5

// Client is a Last.fm Web API client that implements metadata.Provider.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string

	norm    *metadata.Normalizer
	timeout time.Duration
	cache   *cache.Cache[metadata.Fragment]
	log     *logger.Logger
}

// Options carries the tunable parts of the client.
type Options struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

// New creates a new Last.fm client.
func New(apiKey string, norm *metadata.Normalizer, log *logger.Logger, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiURL:     "https://ws.audioscrobbler.com/2.0/",
		apiKey:     apiKey,
		norm:       norm,
		timeout:    opts.Timeout,
		cache:      cache.New[metadata.Fragment](opts.CacheTTL),
		log:        log,
	}
}

func (c *Client) Name() string { return "lastfm" }

// Fetch looks the track up and returns its tag/wiki fragment. All failures
// degrade to an empty fragment.
func (c *Client) Fetch(ctx context.Context, title, artist string) metadata.Fragment {
	// An absent artist hint stays absent; the sentinel would derail the
	// service's own fuzzy matching.
	cleanArtist := ""
	if strings.TrimSpace(artist) != "" {
		cleanArtist = c.norm.CleanArtist(artist)
	}
	cleanTitle := c.norm.CleanTitle(title, cleanArtist)

	key := cache.Key(cleanArtist, cleanTitle)
	if frag, ok := c.cache.Get(key); ok {
		c.log.Debug("lastfm cache hit for %q", key)
		return frag
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	frag, err := c.fetch(ctx, cleanTitle, cleanArtist)
	if err != nil {
		c.log.Warn("lastfm lookup failed for %q - %q: %v", cleanArtist, cleanTitle, err)
		return metadata.Fragment{}
	}

	c.cache.Set(key, frag)
	return frag
}

func (c *Client) fetch(ctx context.Context, cleanTitle, cleanArtist string) (metadata.Fragment, error) {
	params := url.Values{}
	params.Set("method", "track.getInfo")
	params.Set("artist", cleanArtist)
	params.Set("track", cleanTitle)
	params.Set("autocorrect", "1")
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return metadata.Fragment{}, fmt.Errorf("failed to create lastfm request: %w", err)
	}
	req.Header.Set("User-Agent", "ytcurator/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return metadata.Fragment{}, fmt.Errorf("lastfm request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return metadata.Fragment{}, fmt.Errorf("lastfm returned %d: %s", resp.StatusCode, body)
	}

	var infoResp trackInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&infoResp); err != nil {
		return metadata.Fragment{}, fmt.Errorf("failed to decode lastfm response: %w", err)
	}

	// Error code 6 is "track not found": a normal empty outcome.
	if infoResp.Error != 0 {
		if infoResp.Error == 6 {
			c.log.Debug("lastfm: no track for %q - %q", cleanArtist, cleanTitle)
			return metadata.Fragment{}, nil
		}
		return metadata.Fragment{}, fmt.Errorf("lastfm API error %d: %s", infoResp.Error, infoResp.Message)
	}

	return buildFragment(infoResp.Track), nil
}

func buildFragment(t trackInfo) metadata.Fragment {
	frag := metadata.Fragment{
		Title:     t.Name,
		Artist:    t.Artist.Name,
		Album:     t.Album.Title,
		Wiki:      stripWikiBoilerplate(t.Wiki.Summary),
		Listeners: atoi(t.Listeners),
		Playcount: atoi(t.Playcount),
	}

	for i, tag := range t.TopTags.Tag {
		if i >= maxTags {
			break
		}
		if tag.Name != "" {
			frag.Tags = append(frag.Tags, tag.Name)
		}
	}

	// Largest album image the API offers.
	for i := len(t.Album.Image) - 1; i >= 0; i-- {
		if t.Album.Image[i].URL != "" {
			frag.CoverURL = t.Album.Image[i].URL
			break
		}
	}

	return frag
}

// stripWikiBoilerplate drops the trailing "Read more on Last.fm" link blob
// the wiki summary carries.
func stripWikiBoilerplate(summary string) string {
	if i := strings.Index(summary, "<a href"); i >= 0 {
		summary = summary[:i]
	}
	return strings.TrimSpace(summary)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// Last.fm API response types

type trackInfoResponse struct {
	Track   trackInfo `json:"track"`
	Error   int       `json:"error"`
	Message string    `json:"message"`
}

type trackInfo struct {
	Name      string `json:"name"`
	Listeners string `json:"listeners"`
	Playcount string `json:"playcount"`
	Artist    struct {
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		Title string  `json:"title"`
		Image []image `json:"image"`
	} `json:"album"`
	TopTags struct {
		Tag []tagEntry `json:"tag"`
	} `json:"toptags"`
	Wiki struct {
		Summary string `json:"summary"`
	} `json:"wiki"`
}

type image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

type tagEntry struct {
	Name string `json:"name"`
}
