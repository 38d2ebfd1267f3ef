package lifecycle

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind classifies an expected, caller-actionable outcome.
type FailureKind string

const (
	KindNotFound             FailureKind = "not_found"
	KindFeatureDisabled      FailureKind = "feature_disabled"
	KindNotRegistered        FailureKind = "not_registered"
	KindStateConflict        FailureKind = "state_conflict"
	KindOutOfWindow          FailureKind = "out_of_window"
	KindInvalidInput         FailureKind = "invalid_input"
	KindOutOfRange           FailureKind = "out_of_range"
	KindConfigurationMissing FailureKind = "configuration_missing"
)

// ErrInfrastructure marks persistence faults. The caller may retry the whole
// request; domain failures are never wrapped with it.
var ErrInfrastructure = errors.New("attendance: infrastructure failure")

// Failure is a domain outcome returned instead of a result.
type Failure struct {
	Kind           FailureKind
	Message        string
	DistanceMeters *float64
	AllowedRadius  *int
	CheckedInAt    *time.Time
	CheckedOutAt   *time.Time
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func fail(kind FailureKind, msg string) *Failure {
	return &Failure{Kind: kind, Message: msg}
}

func outOfRange(distance float64, radius int) *Failure {
	return &Failure{
		Kind:           KindOutOfRange,
		Message:        fmt.Sprintf("you are %.0f m from the activity location, allowed radius is %d m", distance, radius),
		DistanceMeters: &distance,
		AllowedRadius:  &radius,
	}
}

func infra(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInfrastructure, err)
}
