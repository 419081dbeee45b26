// Package tasks implements the reconciliation loop: the decision logic
// comparing two independently sourced playback states, and the
// scheduler that drives it.
//
// # Decision logic
//
// [Decide] is a pure function over a reference [models.StreamSnapshot]
// and a controlled [models.PlaybackState]:
//
//  1. No active controlled playback → start the reference track at the
//     reference position
//  2. Different track → start (a switch always repositions, never seeks)
//  3. Same track, drift beyond the threshold → seek to the reference position
//  4. Same track, drift within the threshold → no-op
//
// [Reconciler] wraps the decision with the per-cycle I/O: device
// listing, device-hint resolution ([SelectDevice]), playback read, and
// the corrective Play/Seek call. Actions are best-effort; failures are
// returned to the scheduler, which decides fatality.
//
// # Scheduling
//
// [Loop] owns the cadence. Two policies are supported:
//   - fixed interval: sleep a constant interval between cycles
//   - predictive: after acting, sleep out the remainder of the track
//     (duration minus position at decision time), checked in 100ms
//     sub-intervals so cancellation is prompt
//
// When the reference source reports the same track as the previous
// cycle the loop enters an explicit re-poll sub-state: a bounded
// number of rapid re-polls, spaced by a [rate.Limiter], looking for an
// imminent track change before falling back to restarting the same
// track from position zero. The bound and spacing are configuration,
// not nested conditionals, so the fallback trigger stays auditable.
//
// Fetch and normalization failures are handled identically: logged
// with the failing stage, then a failure backoff (longer than the
// steady interval) before the next cycle, unless the loop runs in
// one-shot mode, where the first failure of any kind surfaces to the
// caller. The one-shot/continuous fork is the OneShot flag consumed at
// the loop boundary only, never per error site.
//
// # Progress reporting
//
// All phases emit non-blocking [ProgressUpdate] values when a channel
// is provided, mirroring how long-running operations report elsewhere
// in the CLI.
package tasks
