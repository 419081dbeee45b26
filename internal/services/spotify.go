// Spotify API implementation of [Player]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyDevice represents a playback device in a devices response.
type SpotifyDevice struct {
	ID       string `json:"id"`
	IsActive bool   `json:"is_active"`
	Name     string `json:"name"`
	Type     string `json:"type"`
}

type spotifyDevices struct {
	Devices []SpotifyDevice `json:"devices"`
}

// SpotifyPlayerItem is the item block of a player state response.
type SpotifyPlayerItem struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int    `json:"duration_ms"`
	URI        string `json:"uri"`
}

// SpotifyPlayerState represents the account's current playback state.
type SpotifyPlayerState struct {
	Device     SpotifyDevice      `json:"device"`
	ProgressMS int                `json:"progress_ms"`
	IsPlaying  bool               `json:"is_playing"`
	Item       *SpotifyPlayerItem `json:"item"`
}

type playRequest struct {
	URIs       []string `json:"uris"`
	PositionMS int      `json:"position_ms"`
}

// SpotifyService implements the [Player] interface for the Spotify Web API.
// Uses [oauth2] for authentication with automatic token refresh.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	httpClient     *http.Client
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-playback-state",
			"user-modify-playback-state",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 configuration for callback handling.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers a function invoked whenever the
// underlying token source produces a new token, so refreshed tokens
// can be persisted back to the config file.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// OAuthenticate installs a previously obtained token. Requests made
// afterwards refresh the token automatically via the refresh token.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: no usable token", shared.ErrNotAuthenticated)
	}

	s.token = token
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
	}
	s.httpClient = oauth2.NewClient(ctx, source)
	return nil
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a
// callback whenever the access token changes.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	last     string
	callback func(*oauth2.Token)
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != r.last {
		r.last = token.AccessToken
		if r.callback != nil {
			r.callback(token)
		}
	}

	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// A 204 response is treated as success with an empty body; result is
// left untouched in that case.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call OAuthenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := spotifyBaseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: spotify returned 401", shared.ErrTokenExpired)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify API error: %s", shared.ErrFetch, resp.Status)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Devices lists the playback devices currently available to the account.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var resp spotifyDevices
	if err := s.doRequest(ctx, http.MethodGet, "/me/player/devices", nil, &resp); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, models.Device{
			ID:     d.ID,
			Name:   d.Name,
			Type:   d.Type,
			Active: d.IsActive,
		})
	}

	return devices, nil
}

// CurrentPlayback returns the account's playback state. Spotify
// responds 204 with no body when nothing is playing, which maps to a
// state with an empty TrackID.
func (s *SpotifyService) CurrentPlayback(ctx context.Context) (*models.PlaybackState, error) {
	var resp SpotifyPlayerState
	if err := s.doRequest(ctx, http.MethodGet, "/me/player", nil, &resp); err != nil {
		return nil, err
	}

	state := &models.PlaybackState{
		PositionMS: resp.ProgressMS,
		DeviceID:   resp.Device.ID,
		Playing:    resp.IsPlaying,
	}
	if resp.Item != nil {
		state.TrackID = resp.Item.ID
	}

	return state, nil
}

// Play starts the given track at positionMS on the given device.
func (s *SpotifyService) Play(ctx context.Context, deviceID, trackID string, positionMS int) error {
	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	body := playRequest{
		URIs:       []string{"spotify:track:" + trackID},
		PositionMS: positionMS,
	}

	if err := s.doRequest(ctx, http.MethodPut, endpoint, body, nil); err != nil {
		return fmt.Errorf("%w: start playback: %v", shared.ErrPlaybackCommand, err)
	}

	return nil
}

// Seek moves the current track to positionMS on the given device.
func (s *SpotifyService) Seek(ctx context.Context, deviceID string, positionMS int) error {
	params := url.Values{}
	params.Set("position_ms", strconv.Itoa(positionMS))
	if deviceID != "" {
		params.Set("device_id", deviceID)
	}

	endpoint := "/me/player/seek?" + params.Encode()

	if err := s.doRequest(ctx, http.MethodPut, endpoint, nil, nil); err != nil {
		return fmt.Errorf("%w: seek: %v", shared.ErrPlaybackCommand, err)
	}

	return nil
}
