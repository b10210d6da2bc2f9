package pricing

import "unicode/utf8"

// Priority classifies a lead for back-office triage.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// LeadScore is the result of scoring a lead.
type LeadScore struct {
	Score    int
	Priority Priority
}

// Scoring model constants. The model is additive from a base of 50; the
// highest matching price threshold wins.
const (
	scoreBase = 50

	highValueThreshold = 50000
	midValueThreshold  = 20000
	lowValueThreshold  = 10000

	bulkQuantityThreshold   = 20
	detailedRequirementsLen = 50

	urgentScore = 80
	highScore   = 65
	lowScore    = 40
)

// Score computes a lead score and priority tier from the estimated order
// value and request attributes. It is pure and total: every input combination
// yields a defined result.
//
// The priority tier is derived from the raw additive sum; the stored score is
// clamped to [0,100] afterwards so stacked bonuses cannot push it past the
// display ceiling.
func Score(avgEstimatedPrice float64, quantity int, requirements, country string) LeadScore {
	score := scoreBase

	switch {
	case avgEstimatedPrice > highValueThreshold:
		score += 30
	case avgEstimatedPrice > midValueThreshold:
		score += 20
	case avgEstimatedPrice > lowValueThreshold:
		score += 10
	}

	if quantity > bulkQuantityThreshold {
		score += 10
	}
	if utf8.RuneCountInString(requirements) > detailedRequirementsLen {
		score += 5
	}
	if IsMiddleEast(country) {
		score += 10
	}

	priority := priorityFor(score)

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	return LeadScore{Score: score, Priority: priority}
}

// priorityFor maps a raw score to its triage tier.
func priorityFor(score int) Priority {
	switch {
	case score >= urgentScore:
		return PriorityUrgent
	case score >= highScore:
		return PriorityHigh
	case score < lowScore:
		return PriorityLow
	default:
		return PriorityMedium
	}
}
