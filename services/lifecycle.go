package services

import (
	"strings"

	"github.com/cppla/jobboard/models"
)

// transitions lists the allowed next states. Accepted and rejected have none.
var transitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.StatusPending: {models.StatusAccepted, models.StatusRejected},
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.ApplicationStatus) bool {
	return len(transitions[status]) == 0
}

// CanTransition reports whether from -> to is a legal review decision.
func CanTransition(from, to models.ApplicationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseDecision accepts only the two review outcomes a recruiter may post.
func ParseDecision(raw string) (models.ApplicationStatus, bool) {
	switch s := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case models.StatusAccepted, models.StatusRejected:
		return s, true
	default:
		return "", false
	}
}

// decide validates a requested decision against the current status.
func decide(current models.ApplicationStatus, raw string) (models.ApplicationStatus, error) {
	next, ok := ParseDecision(raw)
	if !ok {
		return "", &TransitionError{From: current, To: raw, Reason: "status must be accepted or rejected"}
	}
	if !CanTransition(current, next) {
		return "", &TransitionError{From: current, To: raw, Reason: "application has already been " + string(current)}
	}
	return next, nil
}
