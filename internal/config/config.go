package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArtistRule is one ordered pattern → replacement step appended to the
// built-in artist cleanup rules.
type ArtistRule struct {
	Pattern string `yaml:"pattern"`
	Replace string `yaml:"replace"`
}

// Config contains the program configuration. The numeric matching values are
// empirically tuned; they are exposed here so they can be adjusted and tested
// independently, not because the defaults are expected to change.
type Config struct {
	Verbose      bool   `yaml:"verbose"`
	ListenAddr   string `yaml:"listen_addr"`
	ParallelJobs int    `yaml:"parallel_jobs"`
	CacheDir     string `yaml:"cache_dir"`
	LibraryDir   string `yaml:"library_dir"`

	GeniusToken  string `yaml:"genius_token"`
	LastFMAPIKey string `yaml:"lastfm_api_key"`

	ProviderTimeoutSec int `yaml:"provider_timeout_sec"`
	CoverTimeoutSec    int `yaml:"cover_timeout_sec"`
	CacheTTLSec        int `yaml:"cache_ttl_sec"`

	MatchThreshold      float64 `yaml:"match_threshold"`
	MusicBrainzMinScore float64 `yaml:"musicbrainz_min_score"`

	MinLyricsLength int    `yaml:"min_lyrics_length"`
	DefaultAlbum    string `yaml:"default_album"`
	DefaultGenre    string `yaml:"default_genre"`

	CoverMinResolution int `yaml:"cover_min_resolution"`
	CoverMaxResolution int `yaml:"cover_max_resolution"`

	// Curated table extensions, merged over the built-in data.
	ArtistOverrides map[string]string `yaml:"artist_overrides"`
	ArtistRules     []ArtistRule      `yaml:"artist_rules"`
	GenreSynonyms   map[string]string `yaml:"genre_synonyms"`
	GenreDenylist   []string          `yaml:"genre_denylist"`
	ArtistGenres    map[string]string `yaml:"artist_genres"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:          "127.0.0.1:8799",
		ParallelJobs:        4,
		CacheDir:            filepath.Join(homeDir(), ".cache", "ytcurator"),
		LibraryDir:          filepath.Join(homeDir(), "Music"),
		ProviderTimeoutSec:  10,
		CoverTimeoutSec:     10,
		CacheTTLSec:         3600,
		MatchThreshold:      0.7,
		MusicBrainzMinScore: 0.6,
		MinLyricsLength:     100,
		DefaultAlbum:        "Single",
		DefaultGenre:        "Other",
		CoverMinResolution:  300,
		CoverMaxResolution:  1000,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.CacheDir = ExpandHome(cfg.CacheDir)
	cfg.LibraryDir = ExpandHome(cfg.LibraryDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations.
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./ytcurator.yaml",
		"./ytcurator.yml",
		filepath.Join(home, ".config", "ytcurator", "config.yaml"),
		filepath.Join(home, ".config", "ytcurator", "config.yml"),
		filepath.Join(home, ".ytcurator.yaml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file.
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path.
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "ytcurator", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path.
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "ytcurator", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", c.ParallelJobs)
	}
	if c.ParallelJobs > 10 {
		return fmt.Errorf("parallel jobs cannot exceed 10 (to avoid rate limiting), got %d", c.ParallelJobs)
	}

	for name, v := range map[string]float64{
		"match_threshold":       c.MatchThreshold,
		"musicbrainz_min_score": c.MusicBrainzMinScore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got %.2f", name, v)
		}
	}

	if c.ProviderTimeoutSec < 1 {
		return fmt.Errorf("provider_timeout_sec must be at least 1, got %d", c.ProviderTimeoutSec)
	}
	if c.CoverMinResolution < 1 || c.CoverMaxResolution < c.CoverMinResolution {
		return fmt.Errorf("cover resolution bounds invalid: min=%d max=%d", c.CoverMinResolution, c.CoverMaxResolution)
	}

	if c.LibraryDir == "" {
		return fmt.Errorf("library_dir cannot be empty")
	}

	return nil
}
