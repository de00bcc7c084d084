package metadata

import (
	"context"
)

// RawQuery is the engine's input: a noisy title/artist guess derived from an
// uploaded video, plus provider-agnostic hints (thumbnail URL, uploader name)
// used only as last-resort fallbacks.
type RawQuery struct {
	Title  string
	Artist string
	Album  string
	Extra  map[string]string
}

// Fragment is one provider's partial answer for a query. Any field may be
// left at its zero value; that means "unknown", not failure. The zero
// Fragment means the provider found nothing usable.
type Fragment struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Year        int
	TrackNumber int
	Genre       string
	Tags        []string
	Lyrics      string
	Wiki        string
	CoverURL    string
	ReleaseID   string
	Listeners   int
	Playcount   int
}

// Empty reports whether the fragment carries no usable data at all.
func (f Fragment) Empty() bool {
	return f.Title == "" && f.Artist == "" && f.Album == "" &&
		f.Genre == "" && f.Lyrics == "" && f.Wiki == "" &&
		f.CoverURL == "" && f.ReleaseID == "" && len(f.Tags) == 0 &&
		f.Year == 0 && f.TrackNumber == 0
}

// Reconciled is the final merged metadata record handed to the file-writing
// collaborator. Every field is resolved; unresolvable fields carry a
// documented default instead of being empty.
type Reconciled struct {
	Title       string   `yaml:"title"`
	Artist      string   `yaml:"artist"`
	Album       string   `yaml:"album"`
	AlbumArtist string   `yaml:"album_artist"`
	Year        int      `yaml:"year"`
	TrackNumber int      `yaml:"track_number"`
	Genre       string   `yaml:"genre"`
	Lyrics      string   `yaml:"lyrics"`
	CoverURL    string   `yaml:"cover_url,omitempty"`
	CoverData   []byte   `yaml:"-"`
	Tags        []string `yaml:"tags"`
}

// Provider is the contract every metadata catalog client satisfies.
//
// Fetch never fails: network errors, timeouts and unusable responses are
// absorbed (and logged) inside the client and degrade to the zero Fragment.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, title, artist string) Fragment
}
