package tasks

import (
	"fmt"
	"time"

	"github.com/h2see/eavesdrop/internal/models"
)

// ProgressUpdate represents a progress event during a sync cycle.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Loop phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Loop phase enumeration
type Phase int

const (
	FetchStream Phase = iota
	Repoll
	Reconcile
	Act
	Wait
	Backoff
)

func (p Phase) String() string {
	switch p {
	case FetchStream:
		return "fetch_stream"
	case Repoll:
		return "repoll"
	case Reconcile:
		return "reconcile"
	case Act:
		return "act"
	case Wait:
		return "wait"
	case Backoff:
		return "backoff"
	default:
		return ""
	}
}

func fetchStreamUpdate(user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStream,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching current stream for %s...", user),
	}
}

func repollUpdate(attempt, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Repoll,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking for track change...", attempt, total),
	}
}

func reconcileUpdate(snapshot *models.StreamSnapshot) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Reconcile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Reconciling against %s @ %dms...", snapshot.TrackID, snapshot.PositionMS),
		Data:    snapshot,
	}
}

func actUpdate(action Action, snapshot *models.StreamSnapshot) ProgressUpdate {
	msg := "Already synchronized"
	if action.Kind != ActionNone {
		msg = fmt.Sprintf("Issued %s: %s @ %dms", action.Kind, action.TrackID, action.PositionMS)
	}
	return ProgressUpdate{
		Phase:   Act,
		Step:    1,
		Total:   1,
		Message: msg,
		Data:    snapshot,
	}
}

func waitUpdate(d time.Duration) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Wait,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Waiting %s before next poll...", d.Round(time.Millisecond)),
	}
}

func backoffUpdate(d time.Duration, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Backoff,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Cycle failed (%v), backing off %s...", err, d),
	}
}
