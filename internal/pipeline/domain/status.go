package domain

import "fmt"

type Status string

const (
	Pending         Status = "pending"
	Crawled         Status = "crawled"
	Transcribed     Status = "transcribed"
	Analyzed        Status = "analyzed"
	Edited          Status = "edited"
	PendingApproval Status = "pending_approval"
	Approved        Status = "approved"
	Published       Status = "published"
	Rejected        Status = "rejected"
	NeedsEdit       Status = "needs_edit"
	Failed          Status = "failed"
)

// Priority упорядочивает очередь ручного ревью.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// IsTerminal reports whether a job in this status will never be picked up
// by the pipeline again.
func IsTerminal(s Status) bool {
	return s == Published || s == Rejected || s == Failed
}

// CanTransition validates a single edge of the pipeline state machine.
// Any non-terminal status may move to Failed on exhausted retries.
func CanTransition(from, to Status) bool {
	if to == Failed {
		return !IsTerminal(from)
	}
	switch from {
	case Pending:
		return to == Crawled
	case Crawled:
		return to == Transcribed
	case Transcribed:
		return to == Analyzed
	case Analyzed:
		return to == Edited
	case Edited:
		return to == PendingApproval || to == Rejected
	case PendingApproval:
		return to == Approved || to == Rejected || to == NeedsEdit
	case Approved:
		return to == Published
	case NeedsEdit:
		// возврат на переработку: план монтажа строится заново
		return to == Analyzed
	case Published, Rejected, Failed:
		return false
	default:
		return false
	}
}

func ValidateTransition(from, to Status) error {
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// ForwardProgress reports whether the edge advances the job down the
// pipeline. The NeedsEdit rerun edge and transitions into Failed are legal
// but not forward, so they must not reset the retry counter.
func ForwardProgress(from, to Status) bool {
	if from == to || to == Failed {
		return false
	}
	if from == NeedsEdit && to == Analyzed {
		return false
	}
	return CanTransition(from, to)
}
