package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/services"
	"github.com/h2see/eavesdrop/internal/shared"
	"golang.org/x/time/rate"
)

// LoopOpts contains configuration options for creating a Loop.
type LoopOpts struct {
	User           string        // Reference service user to follow
	OneShot        bool          // First error is fatal, exit after one cycle
	Predictive     bool          // Sleep out the remainder of the track instead of a fixed interval
	Interval       time.Duration // Steady-state poll interval (fixed cadence)
	FailureBackoff time.Duration // Wait after a failed cycle, longer than Interval
	RepollInterval time.Duration // Spacing of same-track re-polls
	RepollAttempts int           // Bound on same-track re-polls before the restart fallback
	Tick           time.Duration // Cancellation granularity of long waits
	Logger         *log.Logger
}

// Loop drives the poll cadence: fetch reference stream, reconcile,
// compute the next wait, repeat.
//
// The loop owns the only state carried between cycles, the last seen
// reference track id, and is strictly sequential.
type Loop struct {
	source  services.StreamSource
	engine  *Reconciler
	logger  *log.Logger
	opts    LoopOpts
	limiter *rate.Limiter

	lastTrackID string
}

// NewLoop creates a Loop polling source and reconciling through engine.
func NewLoop(source services.StreamSource, engine *Reconciler, opts LoopOpts) *Loop {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.FailureBackoff <= 0 {
		opts.FailureBackoff = 5 * time.Second
	}
	if opts.RepollInterval <= 0 {
		opts.RepollInterval = 750 * time.Millisecond
	}
	if opts.RepollAttempts <= 0 {
		opts.RepollAttempts = 5
	}
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}

	return &Loop{
		source:  source,
		engine:  engine,
		logger:  opts.Logger,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.RepollInterval), 1),
	}
}

// Run executes the loop until the context is cancelled, or until the
// first cycle completes (or fails) in one-shot mode.
//
// In continuous mode every cycle error is logged with its stage and
// retried after the failure backoff; the loop itself only ends with
// the context. In one-shot mode the first error of any kind is
// returned to the caller.
func (l *Loop) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := l.cycle(ctx, progress)
		if err != nil && errors.Is(err, context.Canceled) {
			return err
		}

		if l.opts.OneShot {
			return err
		}

		if err != nil {
			l.logger.Error("sync cycle failed", "stage", stageOf(err), "error", err)
			l.sendProgress(progress, backoffUpdate(l.opts.FailureBackoff, err))
			if werr := l.wait(ctx, l.opts.FailureBackoff); werr != nil {
				return werr
			}
		}
	}
}

// cycle runs one fetch → normalize → reconcile → wait pass. The wait
// after a successful cycle happens here so the predictive deadline is
// measured from the moment of the decision.
func (l *Loop) cycle(ctx context.Context, progress chan<- ProgressUpdate) error {
	l.sendProgress(progress, fetchStreamUpdate(l.opts.User))

	snapshot, err := l.source.CurrentStream(ctx, l.opts.User)
	if err != nil {
		return err
	}

	// Same track as last cycle usually means the reference source is
	// lagging a track change; re-poll briefly before treating it as a
	// deliberate replay from the top.
	if !l.opts.OneShot && l.lastTrackID != "" && snapshot.TrackID == l.lastTrackID {
		snapshot = l.repollForChange(ctx, snapshot, progress)
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	l.sendProgress(progress, reconcileUpdate(snapshot))

	action, err := l.engine.Reconcile(ctx, *snapshot)
	if err != nil {
		return err
	}

	l.lastTrackID = snapshot.TrackID
	l.sendProgress(progress, actUpdate(action, snapshot))

	if l.opts.OneShot {
		return nil
	}

	next := l.opts.Interval
	if l.opts.Predictive {
		next = snapshot.Remaining()
	}

	l.sendProgress(progress, waitUpdate(next))
	return l.wait(ctx, next)
}

// repollForChange is the same-track sub-state: up to RepollAttempts
// rapid re-polls of the reference source looking for an imminent track
// change. When none is observed the same track is restarted from zero,
// which avoids a stuck state on stale reference reads.
func (l *Loop) repollForChange(ctx context.Context, current *models.StreamSnapshot, progress chan<- ProgressUpdate) *models.StreamSnapshot {
	for attempt := 1; attempt <= l.opts.RepollAttempts; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			break
		}

		l.sendProgress(progress, repollUpdate(attempt, l.opts.RepollAttempts))

		next, err := l.source.CurrentStream(ctx, l.opts.User)
		if err != nil {
			l.logger.Warn("re-poll failed", "attempt", attempt, "error", err)
			break
		}

		if next.TrackID != current.TrackID {
			l.logger.Info("reference source moved to a new track", "track", next.TrackID)
			return next
		}
	}

	l.logger.Info("no track change after re-polls, restarting from beginning", "track", current.TrackID)

	restarted := *current
	restarted.PositionMS = 0
	return &restarted
}

// wait sleeps for d in sub-interval steps so cancellation is observed
// within Tick rather than after the full duration.
func (l *Loop) wait(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}

		step := l.opts.Tick
		if remaining < step {
			step = remaining
		}

		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (l *Loop) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// stageOf names the failing stage of a cycle error for log context.
func stageOf(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoActiveStream),
		errors.Is(err, shared.ErrMissingTrackInfo),
		errors.Is(err, shared.ErrMissingExternalID),
		errors.Is(err, shared.ErrMissingDuration),
		errors.Is(err, shared.ErrInvalidPosition):
		return "validation"
	case errors.Is(err, shared.ErrNoDevice):
		return "device"
	case errors.Is(err, shared.ErrPlaybackCommand):
		return "playback"
	case errors.Is(err, shared.ErrTokenExpired):
		return "auth"
	case errors.Is(err, shared.ErrFetch):
		return "fetch"
	default:
		return "unknown"
	}
}
