package models

import (
	"time"
)

// StreamSnapshot is a normalized view of the reference service's
// current stream for one user, produced fresh on every poll.
type StreamSnapshot struct {
	TrackID    string    // Spotify track ID cross-referenced by the reference service
	DurationMS int       // Total track length in milliseconds
	PositionMS int       // Elapsed position in milliseconds, always <= DurationMS
	FetchedAt  time.Time // When the snapshot was fetched
}

// Remaining returns the wall-clock time left in the track at the
// moment the snapshot was taken.
func (s StreamSnapshot) Remaining() time.Duration {
	return time.Duration(s.DurationMS-s.PositionMS) * time.Millisecond
}

// PlaybackState is the controlled account's playback as reported by
// Spotify. An empty TrackID means no active playback.
type PlaybackState struct {
	TrackID    string
	PositionMS int
	DeviceID   string
	Playing    bool
}

// Active reports whether any track is loaded on the controlled account.
func (p PlaybackState) Active() bool {
	return p.TrackID != ""
}

// Device represents an available Spotify playback device.
type Device struct {
	ID     string
	Name   string
	Type   string
	Active bool
}

// SyncRecord is one persisted corrective action taken by the loop.
type SyncRecord struct {
	ID         string
	User       string
	TrackID    string
	Action     string // "start" or "seek"
	PositionMS int
	DeviceID   string
	CreatedAt  time.Time
}
