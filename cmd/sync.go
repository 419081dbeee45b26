package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/h2see/eavesdrop/internal/repositories"
	"github.com/h2see/eavesdrop/internal/services"
	"github.com/h2see/eavesdrop/internal/shared"
	"github.com/h2see/eavesdrop/internal/tasks"
	"github.com/h2see/eavesdrop/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Sync runs the playback synchronization loop.
//
// The reference user comes from the positional argument, then the
// config file, then an interactive prompt. Startup failures (missing
// credentials, no token) are always fatal; once the loop is running,
// --loop decides whether cycle errors retry or exit.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadConfig(configPath)

	user, err := r.resolveUser(cmd.StringArg("user"), config)
	if err != nil {
		return err
	}

	source := r.source
	if source == nil {
		source = services.NewStatsFMService(config.StatsFM.BaseURL, r.httpClient, shared.GenerateAgent)
	}

	player, err := r.authenticatedPlayer(ctx, config, configPath)
	if err != nil {
		return err
	}

	deviceHint := cmd.String("device")
	if cmd.Bool("interactive") {
		devices, err := player.Devices(ctx)
		if err != nil {
			return fmt.Errorf("failed to list devices: %w", err)
		}
		if len(devices) == 0 {
			return fmt.Errorf("%w: no devices available", shared.ErrNoDevice)
		}
		choice, err := ui.PickDevice(devices)
		if err != nil {
			return fmt.Errorf("device selection failed: %w", err)
		}
		deviceHint = choice.ID
		r.writePlain("→ Using device: %s\n", choice.Name)
	}

	var recorder tasks.ActionRecorder
	if config.Database.Path != "" {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()

		repo, err := repositories.NewHistoryRepository(db)
		if err != nil {
			return fmt.Errorf("failed to initialize history: %w", err)
		}
		recorder = repo
	}

	threshold := cmd.Int("sync_threshold")
	if threshold <= 0 {
		threshold = config.Sync.ThresholdMS
	}

	interval := config.Sync.IntervalDuration()
	if raw := cmd.String("interval"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("%w: invalid --interval %q", shared.ErrInvalidFlag, raw)
		}
		interval = parsed
	}

	engine := tasks.NewReconciler(player, tasks.ReconcilerOpts{
		User:        user,
		DeviceHint:  deviceHint,
		ThresholdMS: threshold,
		Logger:      r.logger,
		Recorder:    recorder,
	})

	loop := tasks.NewLoop(source, engine, tasks.LoopOpts{
		User:           user,
		OneShot:        !cmd.Bool("loop"),
		Predictive:     cmd.Bool("predictive") || config.Sync.Predictive,
		Interval:       interval,
		FailureBackoff: config.Sync.BackoffDuration(),
		RepollInterval: config.Sync.RepollDuration(),
		RepollAttempts: config.Sync.RepollAttempts,
		Logger:         r.logger,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 8)
	defer close(progress)
	go r.reportProgress(progress)

	r.writePlain("→ Syncing playback with %s\n", user)

	if err := loop.Run(runCtx, progress); err != nil {
		if errors.Is(err, context.Canceled) {
			r.writePlainln("✓ Sync stopped")
			return nil
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	r.writePlainln("✓ Sync complete")
	return nil
}

// resolveUser picks the reference user: argument, then config, then a prompt.
func (r *Runner) resolveUser(arg string, config *shared.Config) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if config.StatsFM.User != "" {
		return config.StatsFM.User, nil
	}

	r.writePlain("stats.fm user to follow: ")
	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		return "", fmt.Errorf("%w: a stats.fm user is required", shared.ErrMissingArgument)
	}

	user := strings.TrimSpace(scanner.Text())
	if user == "" {
		return "", fmt.Errorf("%w: a stats.fm user is required", shared.ErrMissingArgument)
	}

	return user, nil
}

// authenticatedPlayer returns the controlled player with a valid token
// installed, wiring token refreshes back into the config file.
func (r *Runner) authenticatedPlayer(ctx context.Context, config *shared.Config, configPath string) (services.Player, error) {
	player := r.player
	if player == nil {
		if err := config.Credentials.Spotify.Validate(); err != nil {
			return nil, err
		}
		svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map())
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		player = svc
	}

	oauthSvc, ok := player.(*services.SpotifyService)
	if !ok {
		// Injected player is assumed pre-authenticated.
		return player, nil
	}

	if config.Credentials.Spotify.AccessToken == "" && config.Credentials.Spotify.RefreshToken == "" {
		return nil, fmt.Errorf("%w: run 'eavesdrop auth' first", shared.ErrNotAuthenticated)
	}

	oauthSvc.SetTokenRefreshCallback(r.saveTokens(configPath, config))

	if err := oauthSvc.OAuthenticate(ctx, config.Credentials.Spotify.Token()); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return oauthSvc, nil
}

// saveTokens persists refreshed tokens so the next run skips reauthorization.
func (r *Runner) saveTokens(configPath string, config *shared.Config) func(*oauth2.Token) {
	return func(token *oauth2.Token) {
		if err := config.Credentials.Spotify.Update(token); err != nil {
			r.logger.Warn("failed to apply refreshed token", "error", err)
			return
		}
		if err := shared.SaveConfig(configPath, config); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed token saved", "path", configPath)
	}
}

// reportProgress drains loop progress updates into debug logs.
func (r *Runner) reportProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		r.logger.Debug(update.Message, "phase", update.Phase.String())
	}
}
