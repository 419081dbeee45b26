package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote service errors
	ErrFetch           = fmt.Errorf("fetch failed")
	ErrPlaybackCommand = fmt.Errorf("playback command failed")
	ErrNoDevice        = fmt.Errorf("no playback devices available")

	// Stream normalization errors, in validation order.
	// The first applicable kind is reported, never a later one.
	ErrNoActiveStream    = fmt.Errorf("no active stream")
	ErrMissingTrackInfo  = fmt.Errorf("missing track information")
	ErrMissingExternalID = fmt.Errorf("missing external track id")
	ErrMissingDuration   = fmt.Errorf("missing track duration")
	ErrInvalidPosition   = fmt.Errorf("invalid playback position")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
