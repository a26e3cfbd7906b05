package services

import (
	"errors"
	"testing"

	"github.com/cppla/jobboard/models"
)

func TestTransitions(t *testing.T) {
	if !CanTransition(models.StatusPending, models.StatusAccepted) || !CanTransition(models.StatusPending, models.StatusRejected) {
		t.Fatal("pending must move to accepted and rejected")
	}
	for _, s := range []models.ApplicationStatus{models.StatusAccepted, models.StatusRejected} {
		if !IsTerminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
		if CanTransition(s, models.StatusPending) {
			t.Fatalf("%s must not return to pending", s)
		}
	}
	if CanTransition(models.StatusPending, models.StatusPending) {
		t.Fatal("pending -> pending is not a decision")
	}
}

func TestDecide(t *testing.T) {
	next, err := decide(models.StatusPending, " Accepted ")
	if err != nil || next != models.StatusAccepted {
		t.Fatalf("expected accepted, got %s %v", next, err)
	}

	var terr *TransitionError
	if _, err := decide(models.StatusPending, "pending"); !errors.As(err, &terr) {
		t.Fatalf("expected transition error for pending, got %v", err)
	}
	if _, err := decide(models.StatusPending, "hired"); !errors.As(err, &terr) {
		t.Fatalf("expected transition error for unknown value, got %v", err)
	}
	if _, err := decide(models.StatusRejected, "accepted"); !errors.As(err, &terr) || terr.From != models.StatusRejected {
		t.Fatalf("expected transition error from rejected, got %v", err)
	}
}
