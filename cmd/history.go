package main

import (
	"context"
	"fmt"

	"github.com/h2see/eavesdrop/internal/repositories"
	"github.com/h2see/eavesdrop/internal/shared"
	"github.com/urfave/cli/v3"
)

// History shows recent sync actions from the history database.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(configPath)

	if config.Database.Path == "" {
		return fmt.Errorf("%w: set database.path in %s to enable history", shared.ErrMissingConfig, configPath)
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	repo, err := repositories.NewHistoryRepository(db)
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	records, err := repo.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if useJSON {
		return r.writeJSON(records, pretty)
	}

	if len(records) == 0 {
		r.writePlain("No sync actions recorded yet.\n")
		return nil
	}

	r.writePlain("Last %d sync actions:\n\n", len(records))
	for _, rec := range records {
		r.writePlain("%s  %-5s  %s @ %dms", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Action, rec.TrackID, rec.PositionMS)
		if rec.User != "" {
			r.writePlain("  (following %s)", rec.User)
		}
		r.writePlain("\n")
	}

	return nil
}
