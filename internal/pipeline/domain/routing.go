package domain

// Review routing thresholds. A clip below RejectThreshold is not worth a
// human's time; above HighPriorityThreshold it goes to the front of the queue.
const (
	RejectThreshold       = 70
	HighPriorityThreshold = 85
)

// RouteDecision is the outcome of the review-entry point for one job.
// Priority is empty when the target status carries no review queue.
type RouteDecision struct {
	Status   Status
	Priority Priority
}

// RouteByScore maps a composite quality score to the next status and the
// review priority. Pure function: no state, same score — same decision.
func RouteByScore(score int) RouteDecision {
	switch {
	case score >= HighPriorityThreshold:
		return RouteDecision{Status: PendingApproval, Priority: PriorityHigh}
	case score >= RejectThreshold:
		return RouteDecision{Status: PendingApproval, Priority: PriorityNormal}
	default:
		return RouteDecision{Status: Rejected}
	}
}
