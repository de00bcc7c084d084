package metadata

import (
	"regexp"
	"strings"
	"sync"
)

// Synonym table collapsing genre spellings onto canonical labels. Keys are
// lowercased; contents are curated data, extendable from configuration.
var defaultGenreSynonyms = map[string]string{
	"hip hop":              "Hip-Hop",
	"hip-hop":              "Hip-Hop",
	"hiphop":               "Hip-Hop",
	"german hip hop":       "Hip-Hop",
	"deutschrap":           "Hip-Hop",
	"cloud rap":            "Hip-Hop",
	"trap":                 "Hip-Hop",
	"southern hip hop":     "Hip-Hop",
	"conscious hip hop":    "Hip-Hop",
	"experimental hip hop": "Hip-Hop",
	"rap":                  "Hip-Hop",

	"rock":             "Rock",
	"hard rock":        "Rock",
	"punk rock":        "Rock",
	"pop rock":         "Rock",
	"alternative rock": "Rock",
	"classic rock":     "Rock",
	"indie rock":       "Rock",
	"garage rock":      "Rock",

	"pop":            "Pop",
	"german pop":     "Pop",
	"synthpop":       "Pop",
	"electropop":     "Pop",
	"dance":          "Dance",
	"edm":            "Dance",
	"house":          "House",
	"deep house":     "Deep House",
	"tropical house": "Tropical House",
	"techno":         "Techno",
	"electronic":     "Electronic",
	"electronica":    "Electronic",

	"rnb":               "R&B",
	"r&b":               "R&B",
	"soul":              "Soul",
	"jazz":              "Jazz",
	"classical":         "Classical",
	"singer-songwriter": "Singer-Songwriter",
}

// Deny-list of strings that providers misfile as genres: platform noise,
// moods, playlist names, artist names, year strings. Curated data.
var defaultGenreDenylist = []string{
	"", "none", "unknown", "unbekannt", "test", "default",
	"musik", "music", "germany", "female", "cover",
	"feat", "featuring", "intro", "favorites", "awesome",
	"pop/rock", "various", "random", "no genre", "soundtrack",
	"soundtracks", "songs", "mix", "remix", "live", "single", "audio",
	"seen live", "favorite", "party", "colors", "black",
	"love at first listen", "great quality stuff", "wake-up song",
	"4 stars", "warm inside", "fm4",
}

// Year strings ("2016", "2015 single", "2020s") are never genres.
var yearTagPattern = regexp.MustCompile(`^\d{4}(s| single)?$`)

// Per-artist genre fallback table: the artist's catalog genre, used when no
// song-level candidate survives. Keys lowercased.
var defaultArtistGenres = map[string]string{
	"makko":        "hiphop",
	"zartmann":     "pop",
	"01099":        "hip hop",
	"pashanim":     "hip hop",
	"dante yn":     "hip hop",
	"kygo":         "tropical house",
	"möwe":         "deep house",
	"robin schulz": "dance",
	"ski aggu":     "hip-hop",
	"lea":          "pop",
	"bausa":        "hip-hop",
	"sido":         "hiphop",
	"badchieff":    "hip-hop",
	"drake":        "rap",
	"travis scott": "trap",
}

// GenreStats are observability counters for the resolver. They are not part
// of the correctness contract.
type GenreStats struct {
	Processed      int `json:"processed"`
	Mapped         int `json:"mapped"`
	Unchanged      int `json:"unchanged"`
	Denied         int `json:"denied"`
	ArtistFallback int `json:"artist_fallback"`
	Unresolved     int `json:"unresolved"`
}

// GenreResolver normalizes free-text genre/tag candidates onto one canonical
// genre label. Safe for concurrent use.
type GenreResolver struct {
	synonyms     map[string]string
	deny         map[string]struct{}
	artistGenres map[string]string

	mu    sync.Mutex
	stats GenreStats
}

// NewGenreResolver builds a resolver from the default tables, extended by the
// given synonyms, deny entries and per-artist genres (all may be nil).
func NewGenreResolver(synonyms map[string]string, deny []string, artistGenres map[string]string) *GenreResolver {
	g := &GenreResolver{
		synonyms:     make(map[string]string, len(defaultGenreSynonyms)+len(synonyms)),
		deny:         make(map[string]struct{}, len(defaultGenreDenylist)+len(deny)),
		artistGenres: make(map[string]string, len(defaultArtistGenres)+len(artistGenres)),
	}
	for k, v := range defaultGenreSynonyms {
		g.synonyms[k] = v
	}
	for k, v := range synonyms {
		g.synonyms[strings.ToLower(strings.TrimSpace(k))] = v
	}
	for _, d := range defaultGenreDenylist {
		g.deny[d] = struct{}{}
	}
	for _, d := range deny {
		g.deny[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	for k, v := range defaultArtistGenres {
		g.artistGenres[k] = v
	}
	for k, v := range artistGenres {
		g.artistGenres[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return g
}

// ArtistDefault returns the curated catalog genre for an artist, or "".
func (g *GenreResolver) ArtistDefault(artist string) string {
	return g.artistGenres[strings.ToLower(strings.TrimSpace(artist))]
}

// Resolve walks the candidate genre/tag strings in priority order and returns
// the first one that survives normalization and is not denied. When no
// song-level candidate survives, the artist-level fallback goes through the
// same pipeline. Returns "" when nothing usable remains.
func (g *GenreResolver) Resolve(candidates []string, artistFallback string) string {
	g.mu.Lock()
	g.stats.Processed++
	g.mu.Unlock()

	for _, c := range candidates {
		if label := g.normalizeOne(c); label != "" {
			return label
		}
	}

	if artistFallback != "" {
		if label := g.normalizeOne(artistFallback); label != "" {
			g.count(func(s *GenreStats) { s.ArtistFallback++ })
			return label
		}
	}

	g.count(func(s *GenreStats) { s.Unresolved++ })
	return ""
}

// normalizeOne lowercases a candidate, rejects denied values and maps
// synonyms onto canonical labels. Unknown but plausible values are
// title-cased and passed through.
func (g *GenreResolver) normalizeOne(raw string) string {
	genre := strings.ToLower(strings.TrimSpace(raw))
	if genre == "" {
		return ""
	}
	if _, denied := g.deny[genre]; denied || yearTagPattern.MatchString(genre) {
		g.count(func(s *GenreStats) { s.Denied++ })
		return ""
	}
	if mapped, ok := g.synonyms[genre]; ok {
		if mapped == "" {
			g.count(func(s *GenreStats) { s.Denied++ })
			return ""
		}
		g.count(func(s *GenreStats) { s.Mapped++ })
		return mapped
	}
	g.count(func(s *GenreStats) { s.Unchanged++ })
	return titleCase(genre)
}

// Stats returns a snapshot of the resolver's counters.
func (g *GenreResolver) Stats() GenreStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

func (g *GenreResolver) count(f func(*GenreStats)) {
	g.mu.Lock()
	f(&g.stats)
	g.mu.Unlock()
}
