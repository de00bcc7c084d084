package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"ytcurator/internal/config"
	"ytcurator/internal/cover"
	"ytcurator/internal/logger"
	"ytcurator/internal/metadata"
	"ytcurator/internal/provider/genius"
	"ytcurator/internal/provider/lastfm"
	"ytcurator/internal/provider/musicbrainz"
	"ytcurator/internal/web"
)

const version = "0.1.0"

func main() {
	cfg, cli, configPath, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Verbose)
	defer log.Close()

	if !cfg.Verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else {
			logFile := filepath.Join(logDir, fmt.Sprintf("ytcurator_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := log.SetFileLog(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
			} else {
				log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	if cfg.Verbose && configPath != "" {
		log.Debug("Loaded configuration from: %s", configPath)
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, genres, err := buildEngine(cfg, log)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	if cli.Serve {
		if err := serve(ctx, cfg, engine, genres, log); err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
		return
	}

	if err := oneShot(ctx, cfg, cli, engine, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

// buildEngine wires the providers, resolvers and engine from config.
func buildEngine(cfg config.Config, log *logger.Logger) (*metadata.Engine, *metadata.GenreResolver, error) {
	rules := make([]struct{ Pattern, Replace string }, len(cfg.ArtistRules))
	for i, r := range cfg.ArtistRules {
		rules[i] = struct{ Pattern, Replace string }{r.Pattern, r.Replace}
	}

	norm, err := metadata.NewNormalizer(cfg.ArtistOverrides, rules)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid artist rules: %w", err)
	}

	providerTimeout := time.Duration(cfg.ProviderTimeoutSec) * time.Second
	cacheTTL := time.Duration(cfg.CacheTTLSec) * time.Second

	mb := musicbrainz.New(norm, log, musicbrainz.Options{
		MinScore: cfg.MusicBrainzMinScore,
		Timeout:  providerTimeout,
		CacheTTL: cacheTTL,
	})
	gen := genius.New(cfg.GeniusToken, norm, log, genius.Options{
		Threshold: cfg.MatchThreshold,
		Timeout:   providerTimeout,
		CacheTTL:  cacheTTL,
		CacheDir:  filepath.Join(cfg.CacheDir, "genius"),
	})
	lfm := lastfm.New(cfg.LastFMAPIKey, norm, log, lastfm.Options{
		Timeout:  providerTimeout,
		CacheTTL: cacheTTL,
	})

	genres := metadata.NewGenreResolver(cfg.GenreSynonyms, cfg.GenreDenylist, cfg.ArtistGenres)

	// Cover priority differs from field-merge priority: the lyrics catalog
	// serves the sharpest art, the release index the most canonical.
	covers := cover.New([]metadata.Provider{gen, mb, lfm}, log, cover.Options{
		MinResolution: cfg.CoverMinResolution,
		MaxResolution: cfg.CoverMaxResolution,
		Timeout:       time.Duration(cfg.CoverTimeoutSec) * time.Second,
		CacheTTL:      cacheTTL,
	})

	engine := metadata.NewEngine(
		[]metadata.Provider{mb, gen, lfm},
		genres,
		covers,
		norm,
		log,
		metadata.Defaults{
			Album:           cfg.DefaultAlbum,
			Genre:           cfg.DefaultGenre,
			MinLyricsLength: cfg.MinLyricsLength,
		},
	)
	return engine, genres, nil
}

// oneShot resolves a single query and prints the record as YAML. With --tag
// the record is also written into the given audio file.
func oneShot(ctx context.Context, cfg config.Config, cli cliArgs, engine *metadata.Engine, log *logger.Logger) error {
	q := metadata.RawQuery{
		Title:  cli.Title,
		Artist: cli.Artist,
		Extra: map[string]string{
			"uploader":  cli.Artist,
			"thumbnail": cli.Thumbnail,
		},
	}

	rec, err := engine.Process(ctx, q)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Print(string(out))

	if cli.TagFile != "" {
		if err := metadata.WriteFile(cli.TagFile, rec); err != nil {
			return err
		}
		log.Info("Tagged %s (files under %s)", cli.TagFile, metadata.LibrarySubDir(rec))
	}

	return nil
}

// serve runs the HTTP API until the context is cancelled.
func serve(ctx context.Context, cfg config.Config, engine *metadata.Engine, genres *metadata.GenreResolver, log *logger.Logger) error {
	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(ctx)

	server := web.NewServer(ctx, jobMgr, engine, genres, cfg, log)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting API server on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
