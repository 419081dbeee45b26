package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// Devices lists the playback devices visible to the controlled account.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	config := r.loadConfig(configPath)

	player, err := r.authenticatedPlayer(ctx, config, configPath)
	if err != nil {
		return err
	}

	devices, err := player.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}

	if useJSON {
		return r.writeJSON(devices, pretty)
	}

	if len(devices) == 0 {
		r.writePlain("No devices found. Open Spotify on a device and try again.\n")
		return nil
	}

	r.writePlain("Found %d devices:\n\n", len(devices))
	for i, d := range devices {
		marker := " "
		if d.Active {
			marker = "•"
		}
		r.writePlain("%s %d. %s\n", marker, i+1, d.Name)
		r.writePlain("     ID: %s\n", d.ID)
		r.writePlain("     Type: %s\n", d.Type)
	}

	return nil
}
