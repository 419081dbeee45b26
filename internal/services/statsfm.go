// stats.fm implementation of [StreamSource]
//
// Response shapes based on the undocumented api.stats.fm/api/v1 endpoints

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/shared"
)

const statsFMBaseURL = "https://api.stats.fm/api/v1"

// streamExternalIDs carries the cross-service identifiers for a track.
type streamExternalIDs struct {
	Spotify []string `json:"spotify"`
}

// streamTrack is the track block of a current-stream payload.
type streamTrack struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	DurationMS  int               `json:"durationMs"`
	ExternalIDs streamExternalIDs `json:"externalIds"`
}

// streamItem is the currently-playing item of a current-stream payload.
//
// ProgressMS is a pointer because the service omits the field entirely
// for some stream states, which is distinct from progress zero.
type streamItem struct {
	Track      *streamTrack `json:"track"`
	ProgressMS *int         `json:"progressMs"`
}

// streamResponse is the raw current-stream payload.
type streamResponse struct {
	Item *streamItem `json:"item"`
}

// StatsFMService implements [StreamSource] for the stats.fm API.
//
// Requests are unauthenticated but carry a randomized User-Agent per
// request; the agent generator is injected so the client stays
// deterministic under test.
type StatsFMService struct {
	baseURL    string
	httpClient *http.Client
	agent      shared.AgentFunc
}

// NewStatsFMService creates a stats.fm client. A nil client falls back
// to [http.DefaultClient]; a nil agent falls back to [shared.GenerateAgent].
func NewStatsFMService(baseURL string, client *http.Client, agent shared.AgentFunc) *StatsFMService {
	if baseURL == "" {
		baseURL = statsFMBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if agent == nil {
		agent = shared.GenerateAgent
	}

	return &StatsFMService{
		baseURL:    baseURL,
		httpClient: client,
		agent:      agent,
	}
}

func (s *StatsFMService) Name() string {
	return "stats.fm"
}

// CurrentStream fetches the user's current stream and normalizes it
// into a [models.StreamSnapshot].
func (s *StatsFMService) CurrentStream(ctx context.Context, user string) (*models.StreamSnapshot, error) {
	endpoint := fmt.Sprintf("%s/users/%s/streams/current", s.baseURL, url.PathEscape(user))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.agent())
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bad stats.fm response: %s", shared.ErrFetch, resp.Status)
	}

	var raw streamResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", shared.ErrFetch, err)
	}

	return normalizeStream(&raw, time.Now())
}

// normalizeStream validates a raw current-stream payload and extracts
// the snapshot the engine reconciles against.
//
// Validation order is fixed, first failure wins: active item, track
// block, Spotify ID list, positive duration, sane position. A position
// past the end of the track is rejected rather than clamped so the
// predictive wait never computes a negative remainder.
func normalizeStream(raw *streamResponse, fetchedAt time.Time) (*models.StreamSnapshot, error) {
	if raw == nil || raw.Item == nil {
		return nil, shared.ErrNoActiveStream
	}

	track := raw.Item.Track
	if track == nil {
		return nil, shared.ErrMissingTrackInfo
	}

	if len(track.ExternalIDs.Spotify) == 0 {
		return nil, shared.ErrMissingExternalID
	}

	if track.DurationMS <= 0 {
		return nil, shared.ErrMissingDuration
	}

	progress := raw.Item.ProgressMS
	if progress == nil || *progress < 0 {
		return nil, shared.ErrInvalidPosition
	}
	if *progress > track.DurationMS {
		return nil, fmt.Errorf("%w: position %dms exceeds duration %dms", shared.ErrInvalidPosition, *progress, track.DurationMS)
	}

	return &models.StreamSnapshot{
		TrackID:    track.ExternalIDs.Spotify[0],
		DurationMS: track.DurationMS,
		PositionMS: *progress,
		FetchedAt:  fetchedAt,
	}, nil
}
