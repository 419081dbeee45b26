// Package models defines the value types flowing through the sync loop.
//
// Two independently sourced playback states drive every decision:
//   - [StreamSnapshot] : what the reference listener is playing, normalized
//     from the stats.fm payload and immutable once constructed
//   - [PlaybackState] : what the controlled Spotify account is playing,
//     read fresh from the player endpoint each cycle
//
// [Device] describes the playback targets the controlled service exposes.
// Device lists are refetched every cycle since connectivity changes
// between polls.
//
// [SyncRecord] is the only persistent entity: an append-only record of
// each corrective action, stored by the repositories package.
package models
