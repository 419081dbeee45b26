package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/h2see/eavesdrop/internal/models"
	"github.com/h2see/eavesdrop/internal/services"
	"github.com/h2see/eavesdrop/internal/shared"
)

// ActionKind enumerates the corrective actions the engine can take.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionStart
	ActionSeek
)

func (k ActionKind) String() string {
	switch k {
	case ActionStart:
		return "start"
	case ActionSeek:
		return "seek"
	default:
		return "none"
	}
}

// Action is the engine's decision for one cycle.
type Action struct {
	Kind       ActionKind
	TrackID    string
	PositionMS int
}

// Decide compares the reference snapshot against controlled playback
// and returns the corrective action.
//
// A track mismatch (or absent controlled playback) always starts the
// reference track at the reference position. On the same track, drift
// beyond thresholdMS seeks to the reference position; drift at or
// below the threshold is left alone, since re-seeking on every poll
// would cause audible stutter.
func Decide(snapshot models.StreamSnapshot, playback models.PlaybackState, thresholdMS int) Action {
	if !playback.Active() || playback.TrackID != snapshot.TrackID {
		return Action{
			Kind:       ActionStart,
			TrackID:    snapshot.TrackID,
			PositionMS: snapshot.PositionMS,
		}
	}

	drift := playback.PositionMS - snapshot.PositionMS
	if drift < 0 {
		drift = -drift
	}

	if drift > thresholdMS {
		return Action{
			Kind:       ActionSeek,
			TrackID:    snapshot.TrackID,
			PositionMS: snapshot.PositionMS,
		}
	}

	return Action{Kind: ActionNone, TrackID: snapshot.TrackID}
}

// ActionRecorder persists corrective actions for later inspection.
type ActionRecorder interface {
	Record(record models.SyncRecord) error
}

// Reconciler fetches controlled playback state and applies the decided
// action for one cycle.
type Reconciler struct {
	player      services.Player
	logger      *log.Logger
	recorder    ActionRecorder
	user        string
	deviceHint  string
	thresholdMS int
}

// ReconcilerOpts contains configuration options for creating a Reconciler.
type ReconcilerOpts struct {
	User        string
	DeviceHint  string
	ThresholdMS int
	Logger      *log.Logger
	Recorder    ActionRecorder
}

// DefaultThresholdMS is the drift tolerance applied when none is configured.
const DefaultThresholdMS = 2000

// NewReconciler creates a Reconciler driving the given player.
func NewReconciler(player services.Player, opts ReconcilerOpts) *Reconciler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.ThresholdMS <= 0 {
		opts.ThresholdMS = DefaultThresholdMS
	}

	return &Reconciler{
		player:      player,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
		user:        opts.User,
		deviceHint:  opts.DeviceHint,
		thresholdMS: opts.ThresholdMS,
	}
}

// Reconcile runs one cycle: list devices, resolve the target device,
// read controlled playback, decide, and apply the action.
//
// Errors from the controlled service are returned to the caller; the
// scheduler decides whether they are fatal.
func (r *Reconciler) Reconcile(ctx context.Context, snapshot models.StreamSnapshot) (Action, error) {
	devices, err := r.player.Devices(ctx)
	if err != nil {
		return Action{}, fmt.Errorf("failed to list devices: %w", err)
	}

	deviceID, err := SelectDevice(devices, r.deviceHint, r.logger)
	if err != nil {
		return Action{}, err
	}

	playback, err := r.player.CurrentPlayback(ctx)
	if err != nil {
		return Action{}, fmt.Errorf("failed to read playback state: %w", err)
	}

	action := Decide(snapshot, *playback, r.thresholdMS)

	switch action.Kind {
	case ActionStart:
		if err := r.player.Play(ctx, deviceID, action.TrackID, action.PositionMS); err != nil {
			return action, err
		}
		r.logger.Info("started playback", "track", action.TrackID, "position_ms", action.PositionMS, "device", deviceID)
	case ActionSeek:
		if err := r.player.Seek(ctx, deviceID, action.PositionMS); err != nil {
			return action, err
		}
		r.logger.Info("seeked playback", "track", action.TrackID, "position_ms", action.PositionMS, "device", deviceID)
	case ActionNone:
		r.logger.Debug("already synchronized", "track", action.TrackID)
	}

	r.record(action, deviceID)

	return action, nil
}

// record persists a corrective action. Recording failures never
// disrupt the loop.
func (r *Reconciler) record(action Action, deviceID string) {
	if r.recorder == nil || action.Kind == ActionNone {
		return
	}

	rec := models.SyncRecord{
		ID:         shared.GenerateID(),
		User:       r.user,
		TrackID:    action.TrackID,
		Action:     action.Kind.String(),
		PositionMS: action.PositionMS,
		DeviceID:   deviceID,
		CreatedAt:  time.Now(),
	}

	if err := r.recorder.Record(rec); err != nil {
		r.logger.Warn("failed to record sync action", "error", err)
	}
}
