package main

import (
	"fmt"
	"os"

	"ytcurator/internal/config"
)

// cliArgs holds the options that only exist on the command line.
type cliArgs struct {
	Serve     bool
	Title     string
	Artist    string
	Thumbnail string
	TagFile   string
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs() (config.Config, cliArgs, string, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--version" {
			fmt.Printf("ytcurator %s\n", version)
			os.Exit(0)
		}
		if arg == "--init-config" {
			return config.Config{}, cliArgs{}, "", initConfigFile()
		}
	}

	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return config.Config{}, cliArgs{}, "", fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return config.Config{}, cliArgs{}, "", fmt.Errorf("failed to load config: %w", err)
	}
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	var cli cliArgs

	needsValue := func(i int, flag string) error {
		if i+1 >= len(args) {
			return fmt.Errorf("%s requires a value", flag)
		}
		return nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			cfg.Verbose = true

		case "--serve", "-s":
			cli.Serve = true

		case "--listen", "-l":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			cfg.ListenAddr = args[i]

		case "--parallel", "-p":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			var jobs int
			if _, err := fmt.Sscanf(args[i], "%d", &jobs); err != nil {
				return config.Config{}, cliArgs{}, "", fmt.Errorf("invalid parallel jobs value: %s", args[i])
			}
			cfg.ParallelJobs = jobs

		case "--title", "-t":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			cli.Title = args[i]

		case "--artist", "-a":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			cli.Artist = args[i]

		case "--thumbnail":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			cli.Thumbnail = args[i]

		case "--tag":
			if err := needsValue(i, arg); err != nil {
				return config.Config{}, cliArgs{}, "", err
			}
			i++
			cli.TagFile = args[i]

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return config.Config{}, cliArgs{}, "", fmt.Errorf("unknown flag: %s", arg)
			}
			// A bare argument is treated as the raw title.
			cli.Title = arg
		}
	}

	return cfg, cli, configPath, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  genius_token: API token for the lyrics catalog")
	fmt.Println("  lastfm_api_key: API key for the scrobble catalog")
	fmt.Println("  parallel_jobs: 1-10 (concurrent reconciliations in server mode)")
	fmt.Println("  match_threshold: 0.0-1.0 (candidate acceptance threshold)")
	fmt.Println("  artist_overrides / genre_synonyms: extend the curated tables")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("ytcurator - Resolve clean music metadata for noisy video titles")
	fmt.Println()
	fmt.Println("Usage: ytcurator [options] [<raw title>]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -t, --title <title>        Raw video title to resolve")
	fmt.Println("  -a, --artist <name>        Uploader / channel name hint")
	fmt.Println("      --thumbnail <url>      Thumbnail URL, used as cover fallback")
	fmt.Println("      --tag <file>           Write the resolved tags into an audio file")
	fmt.Println("  -s, --serve                Run the HTTP API instead of a one-shot lookup")
	fmt.Println("  -l, --listen <addr>        Listen address in server mode (default: 127.0.0.1:8799)")
	fmt.Println("  -p, --parallel <n>         Concurrent reconciliations in server mode (1-10)")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("      --version              Print the version and exit")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./ytcurator.yaml")
	fmt.Println("  ~/.config/ytcurator/config.yaml")
	fmt.Println("  ~/.ytcurator.yaml")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # One-shot lookup, result printed as YAML")
	fmt.Println("  ytcurator -t \"Ski Aggu, Sido - Mein Block (Official Video)\" -a aggu31")
	fmt.Println()
	fmt.Println("  # Resolve and tag a downloaded file in one go")
	fmt.Println("  ytcurator -t \"LEA - Treppenhaus\" --tag ./treppenhaus.mp3")
	fmt.Println()
	fmt.Println("  # Run the HTTP API")
	fmt.Println("  ytcurator --serve -l 0.0.0.0:8799")
}
