package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arunsworld/nursery"

	"ytcurator/internal/logger"
)

// CoverFetcher is the cover resolver as the engine sees it.
type CoverFetcher interface {
	Fetch(ctx context.Context, title, artist, album string) []byte
	FetchURL(ctx context.Context, imageURL string) []byte
}

// Defaults are the safe values substituted for fields no provider resolved.
type Defaults struct {
	Album           string
	Genre           string
	Lyrics          string
	MinLyricsLength int
}

// Engine reconciles the providers' partial answers into one complete record.
// It never fails for environmental reasons: provider errors are already
// absorbed below it, and every unresolved field degrades to a default. The
// only error it returns is a malformed query, which is a caller bug.
type Engine struct {
	providers []Provider // fixed merge priority order
	genres    *GenreResolver
	covers    CoverFetcher
	norm      *Normalizer
	log       *logger.Logger
	defaults  Defaults
}

// NewEngine creates an Engine. The provider slice order is the field-merge
// priority: earlier providers win disputed fields.
func NewEngine(providers []Provider, genres *GenreResolver, covers CoverFetcher, norm *Normalizer, log *logger.Logger, defaults Defaults) *Engine {
	if defaults.Album == "" {
		defaults.Album = "Single"
	}
	if defaults.Genre == "" {
		defaults.Genre = "Other"
	}
	if defaults.Lyrics == "" {
		defaults.Lyrics = "Instrumental"
	}
	if defaults.MinLyricsLength <= 0 {
		defaults.MinLyricsLength = 100
	}
	return &Engine{
		providers: providers,
		genres:    genres,
		covers:    covers,
		norm:      norm,
		log:       log,
		defaults:  defaults,
	}
}

// Process resolves one track's metadata. Safe to invoke from many
// goroutines; each call is independent, only the TTL caches are shared.
func (e *Engine) Process(ctx context.Context, q RawQuery) (Reconciled, error) {
	if strings.TrimSpace(q.Title) == "" && strings.TrimSpace(q.Artist) == "" {
		return Reconciled{}, fmt.Errorf("raw query must carry a title or an artist hint")
	}

	rawArtist, rawTitle := e.splitInput(q)
	e.log.Info("Resolving metadata for %q - %q", rawArtist, rawTitle)

	frags := e.fetchAll(ctx, rawTitle, rawArtist)

	// Artist first: the cleaned title depends on it.
	artist := firstString(frags, func(f Fragment) string { return f.Artist })
	if artist == "" {
		artist = rawArtist
	}
	if artist != "" {
		artist = e.norm.CleanArtist(PrimaryArtist(artist))
	}

	title := firstString(frags, func(f Fragment) string { return f.Title })
	if title == "" {
		title = rawTitle
	}
	title = e.norm.CleanTitle(title, artist)

	album := firstString(frags, func(f Fragment) string { return f.Album })
	if album == "" {
		album = e.defaults.Album
	}

	year := firstInt(frags, func(f Fragment) int { return f.Year })
	if year == 0 {
		year = time.Now().Year()
	}

	trackNumber := firstInt(frags, func(f Fragment) int { return f.TrackNumber })
	if trackNumber == 0 {
		trackNumber = 1
	}

	albumArtist := firstString(frags, func(f Fragment) string { return f.AlbumArtist })

	genre := e.resolveGenre(frags, artist)

	lyrics := e.resolveLyrics(frags, title)

	var coverData []byte
	var coverURL string
	if e.covers != nil {
		coverData = e.covers.Fetch(ctx, title, artist, album)
	}
	if coverData == nil {
		coverURL = firstString(frags, func(f Fragment) string { return f.CoverURL })
	}

	rec := Reconciled{
		Title:       title,
		Artist:      artist,
		Album:       album,
		AlbumArtist: albumArtist,
		Year:        year,
		TrackNumber: trackNumber,
		Genre:       genre,
		Lyrics:      lyrics,
		CoverURL:    coverURL,
		CoverData:   coverData,
		Tags:        unionTags(frags),
	}

	rec = e.applyFinalDefaults(ctx, rec, q)
	e.log.Info("Metadata resolved: %q by %q [%s / %s / %d]", rec.Title, rec.Artist, rec.Album, rec.Genre, rec.Year)
	return rec, nil
}

// splitInput applies the uploader heuristic: a raw "A - B" video title is
// split only when its left side overlaps the uploader hint, otherwise the
// uploader is trusted as the artist and the whole title is cleaned.
func (e *Engine) splitInput(q RawQuery) (artist, title string) {
	videoTitle := strings.TrimSpace(q.Title)
	uploader := strings.TrimSpace(q.Artist)

	if left, right, found := strings.Cut(videoTitle, " - "); found && uploader != "" {
		l, u := strings.ToLower(left), strings.ToLower(uploader)
		if strings.Contains(u, l) || strings.Contains(l, u) {
			return e.norm.CleanArtist(left), e.norm.CleanTitle(right, "")
		}
	}
	if uploader == "" {
		if a, t := e.norm.SplitArtistTitle(videoTitle); a != "" {
			return e.norm.CleanArtist(a), e.norm.CleanTitle(t, "")
		}
		// No uploader and no separator: providers get queried without an
		// artist hint; the sentinel is an output default, not a search term.
		return "", e.norm.CleanTitle(videoTitle, "")
	}
	return e.norm.CleanArtist(uploader), e.norm.CleanTitle(videoTitle, "")
}

// fetchAll queries every provider concurrently and joins the results in
// provider order. A slow provider bounds the latency; a failed one
// contributes an empty fragment.
func (e *Engine) fetchAll(ctx context.Context, title, artist string) []Fragment {
	frags := make([]Fragment, len(e.providers))

	jobs := make([]nursery.ConcurrentJob, len(e.providers))
	for i, p := range e.providers {
		i, p := i, p
		jobs[i] = func(ctx context.Context, _ chan error) {
			frags[i] = p.Fetch(ctx, title, artist)
			if frags[i].Empty() {
				e.log.Debug("provider %s returned nothing", p.Name())
			}
		}
	}
	// Providers never surface errors, so the join cannot fail.
	_ = nursery.RunConcurrentlyWithContext(ctx, jobs...)

	return frags
}

// resolveGenre feeds direct genre fields first and free-text tags second into
// the genre resolver, with the artist's catalog genre as last resort.
func (e *Engine) resolveGenre(frags []Fragment, artist string) string {
	var candidates []string
	for _, f := range frags {
		if f.Genre != "" {
			candidates = append(candidates, f.Genre)
		}
	}
	for _, f := range frags {
		candidates = append(candidates, f.Tags...)
	}

	genre := e.genres.Resolve(candidates, e.genres.ArtistDefault(artist))
	if genre == "" {
		return e.defaults.Genre
	}
	return genre
}

// resolveLyrics takes the lyrics catalog's text when it is long enough to be
// real lyrics, substitutes the scrobble catalog's wiki summary under the same
// minimum length, and otherwise leaves lyrics unset. Lyrics are never
// invented; the caller-visible "Instrumental" sentinel comes later.
func (e *Engine) resolveLyrics(frags []Fragment, title string) string {
	lyrics := strings.TrimSpace(firstString(frags, func(f Fragment) string { return f.Lyrics }))
	if len(lyrics) >= e.defaults.MinLyricsLength {
		return lyrics
	}

	wiki := strings.TrimSpace(firstString(frags, func(f Fragment) string { return f.Wiki }))
	if len(wiki) >= e.defaults.MinLyricsLength {
		e.log.Info("Lyrics fallback: using wiki summary for %q", title)
		return wiki
	}

	if lyrics == "" {
		e.log.Debug("no usable lyrics for %q", title)
	}
	return ""
}

// applyFinalDefaults is the fix-up stage: any field still unresolved after
// merging gets a safe value so the caller always receives a complete record.
func (e *Engine) applyFinalDefaults(ctx context.Context, rec Reconciled, q RawQuery) Reconciled {
	if rec.Title == "" {
		rec.Title = strings.TrimSpace(q.Title)
	}
	if rec.Artist == "" {
		if uploader := q.Extra["uploader"]; uploader != "" {
			rec.Artist = e.norm.CleanArtist(uploader)
		} else {
			rec.Artist = UnknownArtist
		}
	}

	if rec.AlbumArtist == "" || isGenericArtist(rec.AlbumArtist) {
		rec.AlbumArtist = rec.Artist
	}

	if rec.CoverData == nil && rec.CoverURL == "" {
		if thumb := q.Extra["thumbnail"]; thumb != "" && e.covers != nil {
			if data := e.covers.FetchURL(ctx, thumb); data != nil {
				e.log.Info("Cover fallback: using upload thumbnail for %q", rec.Title)
				rec.CoverData = data
			}
		}
	}

	if rec.Lyrics == "" {
		rec.Lyrics = e.defaults.Lyrics
	}

	if len(rec.Tags) == 0 {
		rec.Tags = []string{"unknown"}
	}

	return rec
}

func isGenericArtist(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "various artists", "unknown artist", "unknown":
		return true
	}
	return false
}

func firstString(frags []Fragment, field func(Fragment) string) string {
	for _, f := range frags {
		if v := strings.TrimSpace(field(f)); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(frags []Fragment, field func(Fragment) int) int {
	for _, f := range frags {
		if v := field(f); v > 0 {
			return v
		}
	}
	return 0
}

// unionTags collects every provider's tags into one deduplicated sorted set.
func unionTags(frags []Fragment) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, f := range frags {
		for _, t := range f.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}
