package services

import (
	"context"

	"github.com/h2see/eavesdrop/internal/models"
	"golang.org/x/oauth2"
)

// StreamSource fetches the reference listener's current stream.
type StreamSource interface {
	// CurrentStream fetches and normalizes the user's currently playing
	// stream. Returns a validation error when the payload is
	// incomplete and a fetch error on transport or non-200 failures.
	CurrentStream(ctx context.Context, user string) (*models.StreamSnapshot, error)

	// Name returns the name of the service (e.g., "stats.fm")
	Name() string
}

// Player drives playback on the controlled service.
type Player interface {
	// Devices lists the playback devices currently available to the account.
	Devices(ctx context.Context) ([]models.Device, error)

	// CurrentPlayback returns the account's playback state. A state
	// with an empty TrackID means nothing is actively playing.
	CurrentPlayback(ctx context.Context) (*models.PlaybackState, error)

	// Play starts the given track at positionMS on the given device.
	Play(ctx context.Context, deviceID, trackID string, positionMS int) error

	// Seek moves the current track to positionMS on the given device.
	Seek(ctx context.Context, deviceID string, positionMS int) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends a service with server-side OAuth flow support.
type OAuthService interface {
	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 configuration for callback handling.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token, enabling automatic refresh.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
}
