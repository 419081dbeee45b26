// Package services implements clients for the two remote collaborators of the sync loop.
//
// # Reference source
//
// [StatsFMService] fetches current-stream snapshots from the stats.fm
// API. Requests are unauthenticated; each carries a fresh randomized
// User-Agent from an injected [shared.AgentFunc]. The raw payload is
// validated by an internal normalizer with a fixed failure order;
// callers distinguish the kinds via errors.Is against the shared
// sentinels ([shared.ErrNoActiveStream] through [shared.ErrInvalidPosition]).
//
// # Controlled playback
//
// [SpotifyService] wraps the Spotify Web API player endpoints: device
// listing, current playback, start, and seek. Authentication uses
// [oauth2] with the user-read-playback-state and
// user-modify-playback-state scopes; the [oauth2] client refreshes
// expired access tokens transparently, and a refresh callback lets the
// CLI persist new tokens back to the config file.
//
// # Error handling
//
// Both clients wrap failures in the shared sentinels:
//   - [shared.ErrFetch] : transport failure or non-200 response
//   - [shared.ErrTokenExpired] : Spotify returned 401
//   - [shared.ErrPlaybackCommand] : start/seek rejected
//   - [shared.ErrNotAuthenticated] : OAuthenticate not called
package services
