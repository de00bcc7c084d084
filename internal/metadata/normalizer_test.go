package metadata

import "testing"

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(nil, nil)
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	return n
}

func TestCleanArtist(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "Bosse", "Bosse"},
		{"topic channel", "LEA - Topic", "LEA"},
		{"vevo channel", "SidoVEVO", "Sido"},
		{"override key", "aggu31", "Ski Aggu"},
		{"override after rules", "BausaShaus", "BAUSA"},
		{"rule match anywhere", "Ski Aggu x Otto", "Ski Aggu"},
		{"multi artist comma", "Kontra K, AK Ausserkontrolle", "Kontra K"},
		{"multi artist feat", "Capital Bra feat. Samra", "Capital Bra"},
		{"ampersand collab", "Marteria & Casper", "Marteria"},
		{"lowercase single word", "makko", "makko"},
		{"title cases unknown lowercase", "ufo361", "Ufo361"},
		{"keeps existing uppercase", "LEA - Topic", "LEA"},
		{"empty input", "", UnknownArtist},
		{"only noise", "???", UnknownArtist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.CleanArtist(tt.in); got != tt.want {
				t.Errorf("CleanArtist(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanArtistCustomOverride(t *testing.T) {
	n, err := NewNormalizer(map[string]string{"DJ Testo": "Testo"}, nil)
	if err != nil {
		t.Fatalf("NewNormalizer failed: %v", err)
	}
	if got := n.CleanArtist("dj testo"); got != "Testo" {
		t.Errorf("CleanArtist = %q, want %q", got, "Testo")
	}
}

func TestCleanArtistInvalidRule(t *testing.T) {
	_, err := NewNormalizer(nil, []struct{ Pattern, Replace string }{{Pattern: "([", Replace: ""}})
	if err == nil {
		t.Fatal("expected error for invalid rule pattern")
	}
}

func TestCleanTitle(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name   string
		in     string
		artist string
		want   string
	}{
		{
			name:   "full platform noise",
			in:     "Ski Aggu, Sido - Mein Block (Official Video) [4K]",
			artist: "Ski Aggu",
			want:   "Mein Block",
		},
		{
			name:   "artist prefix",
			in:     "LEA - Treppenhaus",
			artist: "LEA",
			want:   "Treppenhaus",
		},
		{
			name:   "feat parenthetical",
			in:     "Immer wenn es regnet (feat. Max Herre)",
			artist: "",
			want:   "Immer wenn es regnet",
		},
		{
			name:   "official audio suffix",
			in:     "Wolke 10 (Official Audio)",
			artist: "",
			want:   "Wolke 10",
		},
		{
			name:   "noise words outside brackets",
			in:     "Sommer Official Video HD",
			artist: "",
			want:   "Sommer",
		},
		{
			name:   "no-op clean title",
			in:     "Mein Block",
			artist: "Ski Aggu",
			want:   "Mein Block",
		},
		{
			name:   "cleanup empties falls back to original",
			in:     "Official Video",
			artist: "",
			want:   "Official Video",
		},
		{
			name:   "empty input",
			in:     "",
			artist: "x",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.CleanTitle(tt.in, tt.artist); got != tt.want {
				t.Errorf("CleanTitle(%q, %q) = %q, want %q", tt.in, tt.artist, got, tt.want)
			}
		})
	}
}

func TestPrimaryArtist(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ski Aggu, Sido", "Ski Aggu"},
		{"A & B", "A"},
		{"A feat. B", "A"},
		{"A ft B", "A"},
		{"A with B", "A"},
		{"Solo", "Solo"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PrimaryArtist(tt.in); got != tt.want {
			t.Errorf("PrimaryArtist(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitArtistTitle(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name       string
		in         string
		wantArtist string
		wantTitle  string
	}{
		{"plain split", "Sido - Astronaut", "Sido", "Astronaut"},
		{"with suffix noise", "Sido - Astronaut (Official Video)", "Sido", "Astronaut"},
		{"leading track number", "01 Sido - Astronaut", "Sido", "Astronaut"},
		{"no separator", "Astronaut", "", "Astronaut"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := n.SplitArtistTitle(tt.in)
			if artist != tt.wantArtist || title != tt.wantTitle {
				t.Errorf("SplitArtistTitle(%q) = (%q, %q), want (%q, %q)",
					tt.in, artist, title, tt.wantArtist, tt.wantTitle)
			}
		})
	}
}
