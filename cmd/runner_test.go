package main

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/h2see/eavesdrop/internal/shared"
	tu "github.com/h2see/eavesdrop/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			input := strings.NewReader("")
			httpClient := &http.Client{}
			source := &tu.MockStreamSource{}
			player := &tu.MockPlayer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				Input:      input,
				HTTPClient: httpClient,
				Source:     source,
				Player:     player,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.player != player {
				t.Error("expected player to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil input uses stdin", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := make(map[string]bool)
		for _, cmd := range commands {
			names[cmd.Name] = true
		}

		for _, want := range []string{"sync", "auth", "devices", "history", "setup"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, false); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if output.String() != "{\"n\":1}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("pretty output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"n": 1}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !strings.Contains(output.String(), "  \"n\": 1") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("unmarshalable data is an error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected marshal error")
			}
		})

		t.Run("write failures are errors", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]int{"n": 1}, false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("writePlain formats to the output writer", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		runner.writePlain("count %d\n", 3)

		if output.String() != "count 3\n" {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("loadStartupConfig", func(t *testing.T) {
		t.Run("missing file yields defaults silently", func(t *testing.T) {
			t.Chdir(t.TempDir())

			logs := &bytes.Buffer{}
			config := loadStartupConfig(shared.NewLogger(logs))

			if config.Sync.ThresholdMS != 2000 {
				t.Errorf("expected default config, got %+v", config.Sync)
			}
			if logs.Len() != 0 {
				t.Errorf("expected no log output, got %q", logs.String())
			}
		})

		t.Run("valid file is loaded", func(t *testing.T) {
			t.Chdir(t.TempDir())

			config := shared.DefaultConfig()
			config.StatsFM.User = "from-file"
			if err := shared.SaveConfig("config.toml", config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			loaded := loadStartupConfig(shared.NewLogger(&bytes.Buffer{}))
			if loaded.StatsFM.User != "from-file" {
				t.Errorf("expected file config, got %+v", loaded.StatsFM)
			}
		})

		t.Run("malformed file is logged before defaulting", func(t *testing.T) {
			t.Chdir(t.TempDir())

			if err := os.WriteFile("config.toml", []byte("[credentials\n"), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			logs := &bytes.Buffer{}
			config := loadStartupConfig(shared.NewLogger(logs))

			if config.Sync.ThresholdMS != 2000 {
				t.Errorf("expected default config, got %+v", config.Sync)
			}
			if !strings.Contains(logs.String(), "failed to load config.toml") {
				t.Errorf("expected a warning about the parse failure, got %q", logs.String())
			}
		})
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("injected config wins", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.StatsFM.User = "injected"

			runner := NewRunner(RunnerOpts{Config: config})

			if got := runner.loadConfig("nonexistent.toml"); got.StatsFM.User != "injected" {
				t.Errorf("expected injected config, got %+v", got.StatsFM)
			}
		})

		t.Run("falls back to the file at path", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			config := shared.DefaultConfig()
			config.StatsFM.User = "from-file"
			if err := shared.SaveConfig(path, config); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			runner := NewRunner(RunnerOpts{})
			runner.config = nil

			if got := runner.loadConfig(path); got.StatsFM.User != "from-file" {
				t.Errorf("expected file config, got %+v", got.StatsFM)
			}
		})

		t.Run("missing file falls back to defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			runner.config = nil

			got := runner.loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
			if got == nil || got.Sync.ThresholdMS != 2000 {
				t.Errorf("expected default config, got %+v", got)
			}
		})
	})

	t.Run("resolveUser", func(t *testing.T) {
		t.Run("argument wins", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			config := shared.DefaultConfig()
			config.StatsFM.User = "configured"

			user, err := runner.resolveUser("argued", config)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != "argued" {
				t.Errorf("expected argued, got %s", user)
			}
		})

		t.Run("config is next", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			config := shared.DefaultConfig()
			config.StatsFM.User = "configured"

			user, err := runner.resolveUser("", config)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != "configured" {
				t.Errorf("expected configured, got %s", user)
			}
		})

		t.Run("prompts as a last resort", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Input: strings.NewReader("typed\n")})

			user, err := runner.resolveUser("", shared.DefaultConfig())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if user != "typed" {
				t.Errorf("expected typed, got %s", user)
			}
			if !strings.Contains(output.String(), "stats.fm user") {
				t.Errorf("expected a prompt, got %q", output.String())
			}
		})

		t.Run("blank input is an error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader("   \n")})

			if _, err := runner.resolveUser("", shared.DefaultConfig()); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("closed input is an error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Input: strings.NewReader("")})

			if _, err := runner.resolveUser("", shared.DefaultConfig()); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})
}
