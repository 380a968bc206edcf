package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteByScore(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		status   Status
		priority Priority
	}{
		{name: "well above high threshold", score: 95, status: PendingApproval, priority: PriorityHigh},
		{name: "exactly at high threshold", score: 85, status: PendingApproval, priority: PriorityHigh},
		{name: "just below high threshold", score: 84, status: PendingApproval, priority: PriorityNormal},
		{name: "exactly at reject threshold", score: 70, status: PendingApproval, priority: PriorityNormal},
		{name: "just below reject threshold", score: 69, status: Rejected, priority: ""},
		{name: "zero", score: 0, status: Rejected, priority: ""},
		{name: "perfect", score: 100, status: PendingApproval, priority: PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := RouteByScore(tt.score)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.priority, d.Priority)
		})
	}
}

func TestRouteByScore_Deterministic(t *testing.T) {
	for s := 0; s <= 100; s++ {
		assert.Equal(t, RouteByScore(s), RouteByScore(s), "score %d", s)
	}
}
