package lifecycle

import (
	"context"
	"time"

	"presenceBack/internal/attendance/fsm"
	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/attendance/window"
)

// WindowStatus describes one attendance window at the time of the request.
type WindowStatus struct {
	OpensAt          time.Time `json:"opens_at"`
	ClosesAt         time.Time `json:"closes_at"`
	Open             bool      `json:"open"`
	RemainingSeconds *int64    `json:"remaining_seconds"`
}

// CaptureSummary is the client-facing view of a stored capture.
type CaptureSummary struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
	CapturedAt     time.Time `json:"captured_at"`
}

// StatusView is the read-only projection used to render check-in/out controls.
type StatusView struct {
	ActivityID      int64           `json:"activity_id"`
	UserID          int64           `json:"user_id"`
	Phase           fsm.Phase       `json:"phase"`
	IsPresent       bool            `json:"is_present"`
	Registered      bool            `json:"registered"`
	GeofenceEnabled bool            `json:"geofence_enabled"`
	RadiusMeters    int             `json:"radius_meters"`
	Now             time.Time       `json:"now"`
	CheckInWindow   WindowStatus    `json:"check_in_window"`
	CheckOutWindow  WindowStatus    `json:"check_out_window"`
	CanCheckIn      bool            `json:"can_check_in"`
	CanCheckOut     bool            `json:"can_check_out"`
	CheckIn         *CaptureSummary `json:"check_in,omitempty"`
	CheckOut        *CaptureSummary `json:"check_out,omitempty"`
}

// GetStatus reports the user's attendance state for an activity. It never
// mutates anything.
func (s *Service) GetStatus(ctx context.Context, activityID, userID int64) (StatusView, error) {
	act, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return StatusView{}, err
	}
	registered, err := s.registrations.IsRegistered(ctx, activityID, userID)
	if err != nil {
		return StatusView{}, infra("check registration", err)
	}
	rec, found, err := s.findRecord(ctx, activityID, userID)
	if err != nil {
		return StatusView{}, err
	}

	now := s.clock.Now()
	ev := s.evaluator(act)
	view := StatusView{
		ActivityID:      activityID,
		UserID:          userID,
		Registered:      registered,
		Phase:           fsm.PhaseNotStarted,
		GeofenceEnabled: act.Geofence.Enabled,
		RadiusMeters:    act.Geofence.RadiusMeters,
		Now:             now,
		CheckInWindow:   windowStatus(ev.CheckInWindow(), now),
		CheckOutWindow:  windowStatus(ev.CheckOutWindow(), now),
	}
	if found {
		view.Phase = rec.Phase
		view.IsPresent = rec.IsPresent
		view.CheckIn = summarize(rec.CheckIn)
		view.CheckOut = summarize(rec.CheckOut)
	}
	view.CanCheckIn = view.Registered && view.GeofenceEnabled && view.Phase == fsm.PhaseNotStarted && view.CheckInWindow.Open
	view.CanCheckOut = view.GeofenceEnabled && view.Phase == fsm.PhaseCheckedIn && view.CheckOutWindow.Open
	return view, nil
}

func windowStatus(w window.Window, now time.Time) WindowStatus {
	return WindowStatus{
		OpensAt:          w.Opens,
		ClosesAt:         w.Closes,
		Open:             w.Contains(now),
		RemainingSeconds: w.Remaining(now),
	}
}

func summarize(c *repo.Capture) *CaptureSummary {
	if c == nil {
		return nil
	}
	return &CaptureSummary{
		Latitude:       c.Point.Lat,
		Longitude:      c.Point.Lon,
		AccuracyMeters: c.AccuracyMeters,
		DistanceMeters: c.DistanceMeters,
		CapturedAt:     c.CapturedAt,
	}
}
