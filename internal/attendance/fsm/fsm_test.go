package fsm

import "testing"

func TestCanTransition(t *testing.T) {
	if !CanTransition(PhaseNotStarted, PhaseCheckedIn) {
		t.Fatal("expected not_started -> checked_in to be allowed")
	}
	if !CanTransition(PhaseCheckedIn, PhaseCompleted) {
		t.Fatal("expected checked_in -> completed to be allowed")
	}
	if CanTransition(PhaseNotStarted, PhaseCompleted) {
		t.Fatal("skipping checked_in must not be allowed")
	}
	if CanTransition(PhaseCompleted, PhaseCheckedIn) {
		t.Fatal("completed must be terminal")
	}
	if CanTransition(PhaseCheckedIn, PhaseCheckedIn) {
		t.Fatal("repeating a phase must not count as a transition")
	}
	if CanTransition(Phase("bogus"), PhaseCheckedIn) {
		t.Fatal("unknown phase must not transition")
	}
}

func TestIsPresent(t *testing.T) {
	if IsPresent(PhaseNotStarted) || IsPresent(PhaseCheckedIn) {
		t.Fatal("only completed grants presence")
	}
	if !IsPresent(PhaseCompleted) {
		t.Fatal("completed must grant presence")
	}
	if Phase("bogus").Valid() {
		t.Fatal("unknown phase reported valid")
	}
}
