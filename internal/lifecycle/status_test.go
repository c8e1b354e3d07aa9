package lifecycle

import (
	"errors"
	"testing"

	"github.com/huynhthanhnam-354/HouseHelp-sub000/internal/model"
)

func TestLegalTransitions(t *testing.T) {
	legal := []struct {
		from, to model.BookingStatus
	}{
		{model.StatusPending, model.StatusConfirmed},
		{model.StatusPending, model.StatusRejected},
		{model.StatusPending, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusCompleted},
		{model.StatusConfirmed, model.StatusCancelled},
		{model.StatusCompleted, model.StatusPaid},
	}
	for _, tc := range legal {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}
}

func TestIllegalTransitions(t *testing.T) {
	illegal := []struct {
		from, to model.BookingStatus
	}{
		{model.StatusConfirmed, model.StatusRejected},
		{model.StatusRejected, model.StatusConfirmed},
		{model.StatusRejected, model.StatusCompleted},
		{model.StatusCancelled, model.StatusConfirmed},
		{model.StatusPaid, model.StatusPending},
		{model.StatusPending, model.StatusPaid},
		{model.StatusPending, model.StatusCompleted},
		{model.StatusPending, model.StatusPending},
	}
	for _, tc := range illegal {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestTransitionReturnsError(t *testing.T) {
	got, err := Transition(model.StatusConfirmed, model.StatusRejected)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if got != model.StatusConfirmed {
		t.Errorf("status should be unchanged on invalid transition, got %s", got)
	}

	got, err = Transition(model.StatusPending, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("legal transition errored: %v", err)
	}
	if got != model.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", got)
	}
}

func TestIsFinal(t *testing.T) {
	for _, s := range []model.BookingStatus{model.StatusRejected, model.StatusCancelled, model.StatusPaid} {
		if !IsFinal(s) {
			t.Errorf("expected %s to be final", s)
		}
	}
	for _, s := range []model.BookingStatus{model.StatusPending, model.StatusConfirmed, model.StatusCompleted} {
		if IsFinal(s) {
			t.Errorf("expected %s not to be final", s)
		}
	}
}

func TestIsDecided(t *testing.T) {
	if IsDecided(model.StatusPending) {
		t.Error("pending should not be decided")
	}
	if !IsDecided(model.StatusConfirmed) {
		t.Error("confirmed should be decided")
	}
}
