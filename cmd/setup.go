package main

import (
	"context"
	"fmt"
	"os"

	"github.com/h2see/eavesdrop/internal/repositories"
	"github.com/h2see/eavesdrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates a config file from the embedded template and applies
// the history schema when a database path is configured.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("config file exists", "path", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
	} else {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config file created at %s\n", configPath)
		if config, err = shared.LoadConfig(configPath); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
	}

	if config.Database.Path == "" {
		r.writePlain("No database.path configured, skipping history setup.\n")
		r.writePlain("Next: add your Spotify credentials to %s and run 'eavesdrop auth'\n", configPath)
		return nil
	}

	r.logger.Info("initializing history database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	if _, err := repositories.NewHistoryRepository(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	r.writePlain("✓ History database ready at %s\n", config.Database.Path)
	r.writePlain("Next: add your Spotify credentials to %s and run 'eavesdrop auth'\n", configPath)
	return nil
}
