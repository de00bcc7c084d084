// Package genius implements the lyrics-catalog provider client.
package genius

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"

	"ytcurator/internal/cache"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
)

// Sentinel the catalog serves in place of missing lyrics.
const lyricsUnavailable = "lyrics not available"

// Client is a Genius API client that implements metadata.Provider. Besides
// the usual search-and-score flow it resolves full lyrics, falling back to
// scraping the song page when the API has none, and keeps a per-song-ID
// fragment cache on disk so lyrics are not re-scraped across runs.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string

	norm     *metadata.Normalizer
	scoring  metadata.Scoring
	timeout  time.Duration
	cache    *cache.Cache[metadata.Fragment]
	cacheDir string
	log      *logger.Logger
}

// Options carries the tunable parts of the client.
type Options struct {
	Threshold float64       // strict-tier acceptance threshold
	Timeout   time.Duration // per-call budget
	CacheTTL  time.Duration
	CacheDir  string // on-disk fragment cache; empty disables it
}

// New creates a new Genius client.
func New(token string, norm *metadata.Normalizer, log *logger.Logger, opts Options) *Client {
	if opts.Threshold <= 0 {
		opts.Threshold = 0.7
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
			log.Warn("genius: cannot create cache dir %s: %v", opts.CacheDir, err)
			opts.CacheDir = ""
		}
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		apiURL:     "https://api.genius.com",
		token:      token,
		norm:       norm,
		scoring: metadata.Scoring{
			TitleWeight:  0.65,
			ArtistWeight: 0.35,
			Threshold:    opts.Threshold,
			// An exact artist is strong evidence even when the title phrasing
			// differs (remixes, radio edits): 50/50 with a looser threshold.
			ExactArtistSim:   0.9,
			RelaxedThreshold: 0.5,
		},
		timeout:  opts.Timeout,
		cache:    cache.New[metadata.Fragment](opts.CacheTTL),
		cacheDir: opts.CacheDir,
		log:      log,
	}
}

func (c *Client) Name() string { return "genius" }

// Fetch resolves the best song match for the given title/artist pair,
// including lyrics. All failures degrade to an empty fragment.
func (c *Client) Fetch(ctx context.Context, title, artist string) metadata.Fragment {
	// An absent artist hint stays absent; the sentinel would skew scoring.
	cleanArtist := ""
	if strings.TrimSpace(artist) != "" {
		cleanArtist = c.norm.CleanArtist(artist)
	}
	cleanTitle := c.norm.CleanTitle(title, cleanArtist)

	key := cache.Key(cleanArtist, cleanTitle)
	if frag, ok := c.cache.Get(key); ok {
		c.log.Debug("genius cache hit for %q", key)
		return frag
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	frag, err := c.fetch(ctx, cleanTitle, cleanArtist)
	if err != nil {
		c.log.Warn("genius lookup failed for %q - %q: %v", cleanArtist, cleanTitle, err)
		return metadata.Fragment{}
	}

	c.cache.Set(key, frag)
	return frag
}

func (c *Client) fetch(ctx context.Context, cleanTitle, cleanArtist string) (metadata.Fragment, error) {
	hits, err := c.search(ctx, strings.TrimSpace(cleanTitle+" "+cleanArtist))
	if err != nil {
		return metadata.Fragment{}, err
	}
	if len(hits) == 0 {
		return metadata.Fragment{}, nil
	}

	candidates := make([]metadata.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = metadata.Candidate{Title: h.Result.Title, Artist: h.Result.PrimaryArtist.Name}
	}

	best, ok := metadata.BestMatch(c.scoring, cleanTitle, cleanArtist, candidates)
	if !ok {
		c.log.Debug("genius: no candidate cleared the threshold for %q - %q", cleanArtist, cleanTitle)
		return metadata.Fragment{}, nil
	}

	hit := hits[best.Index].Result
	c.log.Debug("genius: matched %q by %q (score %.2f)", hit.Title, hit.PrimaryArtist.Name, best.Weighted)

	// Disk cache is keyed by the matched song's identity, so repeat runs skip
	// the detail call and the lyrics scrape entirely.
	if frag, ok := c.loadCached(hit.PrimaryArtist.Name, hit.Title, hit.ID); ok {
		c.log.Debug("genius: disk cache hit for song %d", hit.ID)
		return frag, nil
	}

	song, err := c.songDetail(ctx, hit.ID)
	if err != nil {
		return metadata.Fragment{}, err
	}

	lyrics := strings.TrimSpace(song.Lyrics.Plain)
	if !validLyrics(lyrics) && song.URL != "" {
		c.log.Debug("genius: no lyrics via API, scraping %s", song.URL)
		lyrics, err = c.scrapeLyrics(ctx, song.URL)
		if err != nil {
			c.log.Warn("genius: lyrics scrape failed for %s: %v", song.URL, err)
			lyrics = ""
		}
	}
	if !validLyrics(lyrics) {
		lyrics = ""
	}

	frag := metadata.Fragment{
		Title:    song.Title,
		Artist:   song.PrimaryArtist.Name,
		Album:    song.Album.Name,
		Year:     parseYear(song.ReleaseDate),
		Genre:    song.PrimaryTag.Name,
		Lyrics:   lyrics,
		CoverURL: song.SongArtImageURL,
	}
	if song.PrimaryTag.Name != "" {
		frag.Tags = []string{song.PrimaryTag.Name}
	}

	c.storeCached(hit.PrimaryArtist.Name, hit.Title, hit.ID, frag)
	return frag, nil
}

func (c *Client) search(ctx context.Context, query string) ([]hit, error) {
	reqURL := fmt.Sprintf("%s/search?q=%s&per_page=5", c.apiURL, url.QueryEscape(query))
	var resp searchResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	return resp.Response.Hits, nil
}

func (c *Client) songDetail(ctx context.Context, id int) (song, error) {
	reqURL := fmt.Sprintf("%s/songs/%d?text_format=plain", c.apiURL, id)
	var resp songResponse
	if err := c.getJSON(ctx, reqURL, &resp); err != nil {
		return song{}, err
	}
	return resp.Response.Song, nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create genius request: %w", err)
	}
	req.Header.Set("User-Agent", "ytcurator/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genius request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("genius returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode genius response: %w", err)
	}
	return nil
}

// scrapeLyrics pulls the lyrics containers out of the song page HTML.
func (c *Client) scrapeLyrics(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lyrics page request: %w", err)
	}
	req.Header.Set("User-Agent", "ytcurator/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("lyrics page request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("lyrics page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse lyrics page: %w", err)
	}

	var blocks []string
	doc.Find("div[data-lyrics-container]").Each(func(_ int, sel *goquery.Selection) {
		// <br> separates lines inside a container; make them explicit
		// before flattening to text.
		sel.Find("br").Each(func(_ int, br *goquery.Selection) {
			br.ReplaceWithHtml("\n")
		})
		if text := strings.TrimSpace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return "", fmt.Errorf("no lyrics container in page")
	}
	return strings.Join(blocks, "\n\n"), nil
}

// cachePath names the cache file from the slugged track identity plus the
// song ID, so the cache dir stays human-navigable and IDs keep names unique.
func (c *Client) cachePath(artistName, title string, songID int) string {
	return filepath.Join(c.cacheDir, slug.Make(artistName+"-"+title)+"-"+strconv.Itoa(songID)+".json")
}

func (c *Client) loadCached(artistName, title string, songID int) (metadata.Fragment, bool) {
	if c.cacheDir == "" {
		return metadata.Fragment{}, false
	}
	data, err := os.ReadFile(c.cachePath(artistName, title, songID))
	if err != nil {
		return metadata.Fragment{}, false
	}
	var frag metadata.Fragment
	if err := json.Unmarshal(data, &frag); err != nil {
		return metadata.Fragment{}, false
	}
	// A cached entry without lyrics forces a fresh fetch; lyrics may have
	// been unavailable only transiently.
	if !validLyrics(frag.Lyrics) {
		return metadata.Fragment{}, false
	}
	return frag, true
}

func (c *Client) storeCached(artistName, title string, songID int, frag metadata.Fragment) {
	if c.cacheDir == "" {
		return
	}
	data, err := json.Marshal(frag)
	if err != nil {
		return
	}
	if err := os.WriteFile(c.cachePath(artistName, title, songID), data, 0644); err != nil {
		c.log.Debug("genius: failed to write disk cache for song %d: %v", songID, err)
	}
}

func validLyrics(lyrics string) bool {
	trimmed := strings.TrimSpace(lyrics)
	return trimmed != "" && strings.ToLower(trimmed) != lyricsUnavailable
}

func parseYear(date string) int {
	if len(date) >= 4 {
		if y, err := strconv.Atoi(date[:4]); err == nil {
			return y
		}
	}
	return 0
}

// Genius API response types

type searchResponse struct {
	Response struct {
		Hits []hit `json:"hits"`
	} `json:"response"`
}

type hit struct {
	Result hitResult `json:"result"`
}

type hitResult struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	FullTitle     string `json:"full_title"`
	URL           string `json:"url"`
	PrimaryArtist artist `json:"primary_artist"`
}

type songResponse struct {
	Response struct {
		Song song `json:"song"`
	} `json:"response"`
}

type song struct {
	ID              int    `json:"id"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	ReleaseDate     string `json:"release_date"`
	SongArtImageURL string `json:"song_art_image_url"`
	PrimaryArtist   artist `json:"primary_artist"`
	Album           struct {
		Name string `json:"name"`
	} `json:"album"`
	PrimaryTag struct {
		Name string `json:"name"`
	} `json:"primary_tag"`
	Lyrics struct {
		Plain string `json:"plain"`
	} `json:"lyrics"`
}

type artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
