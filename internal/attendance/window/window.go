package window

import "time"

// Position locates an instant relative to a window.
type Position int

const (
	Before Position = iota
	Inside
	After
)

// Window is a closed interval [Opens, Closes].
type Window struct {
	Opens  time.Time `json:"opens_at"`
	Closes time.Time `json:"closes_at"`
}

// Position classifies now against the window. Both bounds are inside.
func (w Window) Position(now time.Time) Position {
	if now.Before(w.Opens) {
		return Before
	}
	if now.After(w.Closes) {
		return After
	}
	return Inside
}

// Contains reports whether now is inside the window.
func (w Window) Contains(now time.Time) bool {
	return w.Position(now) == Inside
}

// Remaining returns whole seconds until the window closes, or nil when now is
// outside the window.
func (w Window) Remaining(now time.Time) *int64 {
	if !w.Contains(now) {
		return nil
	}
	secs := int64(w.Closes.Sub(now) / time.Second)
	return &secs
}

// Evaluator derives the check-in and check-out windows of one activity.
//
// The check-in window opens at the activity start and stays open for the
// configured check-in width; the check-out window closes at the activity end
// and opens the configured check-out width before it. The windows may overlap
// on short activities; the record's phase decides which action applies.
type Evaluator struct {
	Start    time.Time
	End      time.Time
	CheckIn  time.Duration
	CheckOut time.Duration
}

// New builds an Evaluator from minute widths.
func New(start, end time.Time, checkInMinutes, checkOutMinutes int) Evaluator {
	return Evaluator{
		Start:    start,
		End:      end,
		CheckIn:  time.Duration(checkInMinutes) * time.Minute,
		CheckOut: time.Duration(checkOutMinutes) * time.Minute,
	}
}

// CheckInWindow returns [start, start+checkIn].
func (e Evaluator) CheckInWindow() Window {
	return Window{Opens: e.Start, Closes: e.Start.Add(e.CheckIn)}
}

// CheckOutWindow returns [end-checkOut, end].
func (e Evaluator) CheckOutWindow() Window {
	return Window{Opens: e.End.Add(-e.CheckOut), Closes: e.End}
}

func (e Evaluator) IsInCheckInWindow(now time.Time) bool {
	return e.CheckInWindow().Contains(now)
}

func (e Evaluator) IsInCheckOutWindow(now time.Time) bool {
	return e.CheckOutWindow().Contains(now)
}

func (e Evaluator) CheckInPosition(now time.Time) Position {
	return e.CheckInWindow().Position(now)
}

func (e Evaluator) CheckOutPosition(now time.Time) Position {
	return e.CheckOutWindow().Position(now)
}

func (e Evaluator) CheckInRemainingSeconds(now time.Time) *int64 {
	return e.CheckInWindow().Remaining(now)
}

func (e Evaluator) CheckOutRemainingSeconds(now time.Time) *int64 {
	return e.CheckOutWindow().Remaining(now)
}
