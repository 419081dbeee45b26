package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/h2see/eavesdrop/internal/services"
	"github.com/h2see/eavesdrop/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := loadStartupConfig(logger)

	var player services.Player
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			player = svc
		}
	}

	source := services.NewStatsFMService(config.StatsFM.BaseURL, nil, shared.GenerateAgent)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Source: source,
		Player: player,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "eavesdrop",
		Usage:    "Mirror a stats.fm listening session on your own Spotify account",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// loadStartupConfig reads config.toml from the working directory. A
// missing file silently yields defaults; an unreadable one is logged
// before defaulting.
func loadStartupConfig(logger *log.Logger) *shared.Config {
	if _, err := os.Stat("config.toml"); err != nil {
		return shared.DefaultConfig()
	}

	config, err := shared.LoadConfig("config.toml")
	if err != nil {
		logger.Warn("failed to load config.toml, using defaults", "error", err)
		return shared.DefaultConfig()
	}

	return config
}
