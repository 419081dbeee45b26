package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.StatsFM.BaseURL != "https://api.stats.fm/api/v1" {
			t.Errorf("unexpected base URL %s", config.StatsFM.BaseURL)
		}
		if config.Sync.ThresholdMS != 2000 {
			t.Errorf("expected threshold 2000, got %d", config.Sync.ThresholdMS)
		}
		if config.Sync.RepollAttempts != 5 {
			t.Errorf("expected 5 re-poll attempts, got %d", config.Sync.RepollAttempts)
		}
		if config.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", config.Server.Port)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("round-trips through SaveConfig", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")

			config := DefaultConfig()
			config.StatsFM.User = "alice"
			config.Credentials.Spotify.ClientID = "id"

			if err := SaveConfig(path, config); err != nil {
				t.Fatalf("failed to save: %v", err)
			}

			loaded, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load: %v", err)
			}

			if loaded.StatsFM.User != "alice" {
				t.Errorf("expected user alice, got %s", loaded.StatsFM.User)
			}
			if loaded.Credentials.Spotify.ClientID != "id" {
				t.Errorf("expected client id, got %s", loaded.Credentials.Spotify.ClientID)
			}
		})

		t.Run("missing file is an error", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("malformed TOML is an error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			os.WriteFile(path, []byte("[credentials\n"), 0644)

			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error for malformed TOML")
			}
		})
	})

	t.Run("SaveConfig rejects nil config", func(t *testing.T) {
		err := SaveConfig(filepath.Join(t.TempDir(), "config.toml"), nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		t.Run("writes the embedded template", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")

			if err := CreateConfigFile(path); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("created config does not parse: %v", err)
			}
			if config.Sync.ThresholdMS != 2000 {
				t.Errorf("unexpected threshold %d", config.Sync.ThresholdMS)
			}
		})

		t.Run("refuses to overwrite an existing file", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("existing"), 0644)

			if err := CreateConfigFile(path); err == nil {
				t.Error("expected error for existing file")
			}
		})
	})
}

func TestSpotifyConfig(t *testing.T) {
	t.Run("Update", func(t *testing.T) {
		t.Run("copies token values", func(t *testing.T) {
			config := SpotifyConfig{AccessToken: "old", RefreshToken: "old-refresh"}

			err := config.Update(&oauth2.Token{AccessToken: "new", RefreshToken: "new-refresh"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if config.AccessToken != "new" || config.RefreshToken != "new-refresh" {
				t.Errorf("unexpected config: %+v", config)
			}
		})

		t.Run("keeps the refresh token when the new token omits it", func(t *testing.T) {
			config := SpotifyConfig{RefreshToken: "keep-me"}

			if err := config.Update(&oauth2.Token{AccessToken: "new"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if config.RefreshToken != "keep-me" {
				t.Errorf("expected refresh token to survive, got %s", config.RefreshToken)
			}
		})

		t.Run("rejects a nil token", func(t *testing.T) {
			config := SpotifyConfig{}
			if err := config.Update(nil); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("Validate", func(t *testing.T) {
		t.Run("requires both client credentials", func(t *testing.T) {
			cases := []SpotifyConfig{
				{},
				{ClientID: "id"},
				{ClientSecret: "secret"},
			}
			for _, c := range cases {
				if err := c.Validate(); !errors.Is(err, ErrMissingCredentials) {
					t.Errorf("expected ErrMissingCredentials for %+v, got %v", c, err)
				}
			}
		})

		t.Run("passes with both set", func(t *testing.T) {
			c := SpotifyConfig{ClientID: "id", ClientSecret: "secret"}
			if err := c.Validate(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	})

	t.Run("Map and Token round-trip the credential fields", func(t *testing.T) {
		config := SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			RedirectURI:  "http://localhost:9999/cb",
			AccessToken:  "access",
			RefreshToken: "refresh",
		}

		m := config.Map()
		if m["client_id"] != "id" || m["redirect_uri"] != "http://localhost:9999/cb" {
			t.Errorf("unexpected map: %v", m)
		}

		token := config.Token()
		if token.AccessToken != "access" || token.RefreshToken != "refresh" {
			t.Errorf("unexpected token: %+v", token)
		}
	})
}

func TestSyncConfig(t *testing.T) {
	t.Run("parses configured durations", func(t *testing.T) {
		config := SyncConfig{Interval: "2s", FailureBackoff: "10s", RepollInterval: "500ms"}

		if got := config.IntervalDuration(); got != 2*time.Second {
			t.Errorf("expected 2s, got %v", got)
		}
		if got := config.BackoffDuration(); got != 10*time.Second {
			t.Errorf("expected 10s, got %v", got)
		}
		if got := config.RepollDuration(); got != 500*time.Millisecond {
			t.Errorf("expected 500ms, got %v", got)
		}
	})

	t.Run("falls back on empty or invalid values", func(t *testing.T) {
		config := SyncConfig{Interval: "", FailureBackoff: "not-a-duration", RepollInterval: "-5s"}

		if got := config.IntervalDuration(); got != time.Second {
			t.Errorf("expected 1s fallback, got %v", got)
		}
		if got := config.BackoffDuration(); got != 5*time.Second {
			t.Errorf("expected 5s fallback, got %v", got)
		}
		if got := config.RepollDuration(); got != 750*time.Millisecond {
			t.Errorf("expected 750ms fallback, got %v", got)
		}
	})
}
