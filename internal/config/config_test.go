package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ListenAddr != "127.0.0.1:8799" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.ParallelJobs != 4 {
		t.Errorf("ParallelJobs = %d, want 4", cfg.ParallelJobs)
	}
	if cfg.MatchThreshold != 0.7 {
		t.Errorf("MatchThreshold = %v, want 0.7", cfg.MatchThreshold)
	}
	if cfg.MusicBrainzMinScore != 0.6 {
		t.Errorf("MusicBrainzMinScore = %v, want 0.6", cfg.MusicBrainzMinScore)
	}
	if cfg.MinLyricsLength != 100 {
		t.Errorf("MinLyricsLength = %d, want 100", cfg.MinLyricsLength)
	}
	if cfg.DefaultAlbum != "Single" || cfg.DefaultGenre != "Other" {
		t.Errorf("defaults = %q/%q, want Single/Other", cfg.DefaultAlbum, cfg.DefaultGenre)
	}
	if cfg.CoverMinResolution != 300 || cfg.CoverMaxResolution != 1000 {
		t.Errorf("cover bounds = %d/%d, want 300/1000", cfg.CoverMinResolution, cfg.CoverMaxResolution)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ytcurator.yaml")

	content := `
parallel_jobs: 2
genius_token: tok
match_threshold: 0.8
artist_overrides:
  someband: SomeBand
genre_synonyms:
  krautrock: Rock
genre_denylist:
  - schlager
artist_genres:
  someband: rock
artist_rules:
  - pattern: "(?i)^dj\\s+"
    replace: ""
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile failed: %v", err)
	}

	if cfg.ParallelJobs != 2 {
		t.Errorf("ParallelJobs = %d, want 2", cfg.ParallelJobs)
	}
	if cfg.GeniusToken != "tok" {
		t.Errorf("GeniusToken = %q, want tok", cfg.GeniusToken)
	}
	if cfg.MatchThreshold != 0.8 {
		t.Errorf("MatchThreshold = %v, want 0.8", cfg.MatchThreshold)
	}
	// Unset keys keep their defaults.
	if cfg.MusicBrainzMinScore != 0.6 {
		t.Errorf("MusicBrainzMinScore = %v, want default 0.6", cfg.MusicBrainzMinScore)
	}
	if cfg.ArtistOverrides["someband"] != "SomeBand" {
		t.Errorf("ArtistOverrides = %v", cfg.ArtistOverrides)
	}
	if cfg.GenreSynonyms["krautrock"] != "Rock" {
		t.Errorf("GenreSynonyms = %v", cfg.GenreSynonyms)
	}
	if len(cfg.GenreDenylist) != 1 || cfg.GenreDenylist[0] != "schlager" {
		t.Errorf("GenreDenylist = %v", cfg.GenreDenylist)
	}
	if len(cfg.ArtistRules) != 1 || cfg.ArtistRules[0].Pattern != `(?i)^dj\s+` {
		t.Errorf("ArtistRules = %v", cfg.ArtistRules)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file must yield defaults, got error: %v", err)
	}
	if cfg.ParallelJobs != 4 {
		t.Errorf("ParallelJobs = %d, want default 4", cfg.ParallelJobs)
	}
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("parallel_jobs: [not a number"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.GeniusToken = "secret"

	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("SaveConfigFile failed: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.GeniusToken != "secret" {
		t.Errorf("GeniusToken = %q after reload", loaded.GeniusToken)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero jobs", func(c *Config) { c.ParallelJobs = 0 }, "parallel jobs"},
		{"too many jobs", func(c *Config) { c.ParallelJobs = 11 }, "parallel jobs"},
		{"threshold above one", func(c *Config) { c.MatchThreshold = 1.5 }, "match_threshold"},
		{"negative min score", func(c *Config) { c.MusicBrainzMinScore = -0.1 }, "musicbrainz_min_score"},
		{"zero timeout", func(c *Config) { c.ProviderTimeoutSec = 0 }, "provider_timeout_sec"},
		{"inverted cover bounds", func(c *Config) { c.CoverMaxResolution = 100 }, "cover resolution"},
		{"empty library dir", func(c *Config) { c.LibraryDir = "" }, "library_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if got := ExpandHome("~/music"); got != filepath.Join(home, "music") {
		t.Errorf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("absolute path changed: %q", got)
	}
}
