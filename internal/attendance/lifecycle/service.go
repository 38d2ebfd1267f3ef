package lifecycle

import (
	"context"
	"errors"
	"math"
	"time"

	"presenceBack/internal/attendance/events"
	"presenceBack/internal/attendance/fsm"
	"presenceBack/internal/attendance/geo"
	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/attendance/timeutil"
	"presenceBack/internal/attendance/window"
	"presenceBack/internal/attendance/ws"
)

// ActivityRepository reads and writes activity geofence configuration.
type ActivityRepository interface {
	GetActivity(ctx context.Context, id int64) (repo.Activity, error)
	SaveGeofence(ctx context.Context, activityID int64, cfg repo.GeofenceConfig) error
}

// RegistrationRepository answers whether a user holds a registration.
type RegistrationRepository interface {
	IsRegistered(ctx context.Context, activityID, userID int64) (bool, error)
}

// RecordRepository persists attendance records.
type RecordRepository interface {
	FindRecord(ctx context.Context, activityID, userID int64) (repo.AttendanceRecord, error)
	InsertRecord(ctx context.Context, rec repo.AttendanceRecord) error
	UpdateRecord(ctx context.Context, rec repo.AttendanceRecord, expected fsm.Phase) error
	ListCompleted(ctx context.Context, activityID int64) ([]repo.AttendanceRecord, error)
}

// StatusNotifier pushes committed phase changes to the user's devices.
type StatusNotifier interface {
	PushStatus(userID int64, event ws.StatusEvent)
}

// CompletionPublisher hands completed records to the scoring consumer.
type CompletionPublisher interface {
	PublishCompleted(ctx context.Context, ev events.Completed) (string, error)
}

// Logger is the logging subset used by the engine.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// Deps wires the engine to its collaborators. Notifier and Publisher are optional.
type Deps struct {
	Activities    ActivityRepository
	Registrations RegistrationRepository
	Records       RecordRepository
	Clock         timeutil.Clock
	Notifier      StatusNotifier
	Publisher     CompletionPublisher
	Logger        Logger
}

// Service implements the check-in and check-out use cases.
type Service struct {
	cfg           Config
	activities    ActivityRepository
	registrations RegistrationRepository
	records       RecordRepository
	clock         timeutil.Clock
	notifier      StatusNotifier
	publisher     CompletionPublisher
	logger        Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, deps Deps) *Service {
	def := DefaultConfig()
	if cfg.DefaultCheckInWindowMinutes <= 0 {
		cfg.DefaultCheckInWindowMinutes = def.DefaultCheckInWindowMinutes
	}
	if cfg.DefaultCheckOutWindowMinutes <= 0 {
		cfg.DefaultCheckOutWindowMinutes = def.DefaultCheckOutWindowMinutes
	}
	if deps.Clock == nil {
		deps.Clock = timeutil.NewLocalClock(timeutil.DefaultZone, 7*time.Hour)
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	return &Service{
		cfg:           cfg,
		activities:    deps.Activities,
		registrations: deps.Registrations,
		records:       deps.Records,
		clock:         deps.Clock,
		notifier:      deps.Notifier,
		publisher:     deps.Publisher,
		logger:        deps.Logger,
	}
}

// Config returns copy of the service configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Position is a submitted GPS fix.
type Position struct {
	Lat      float64
	Lon      float64
	Accuracy *float64
}

func (p Position) point() geo.GeoPoint {
	return geo.GeoPoint{Lat: p.Lat, Lon: p.Lon}
}

// Result is returned by a successful check-in or check-out.
type Result struct {
	Record         repo.AttendanceRecord
	DistanceMeters float64
	AllowedRadius  int
}

// CheckIn validates a check-in attempt and opens the attendance record.
// Presence is never granted here.
func (s *Service) CheckIn(ctx context.Context, activityID, userID int64, pos Position) (Result, error) {
	act, err := s.loadEnabledActivity(ctx, activityID)
	if err != nil {
		return Result{}, err
	}
	registered, err := s.registrations.IsRegistered(ctx, activityID, userID)
	if err != nil {
		return Result{}, infra("check registration", err)
	}
	if !registered {
		return Result{}, fail(KindNotRegistered, "you are not registered for this activity")
	}

	existing, found, err := s.findRecord(ctx, activityID, userID)
	if err != nil {
		return Result{}, err
	}
	if found && (existing.CheckIn != nil || existing.Phase != fsm.PhaseNotStarted) {
		return Result{}, alreadyCheckedIn(existing)
	}

	now := s.clock.Now()
	switch s.evaluator(act).CheckInPosition(now) {
	case window.Before:
		return Result{}, fail(KindOutOfWindow, "activity has not started yet")
	case window.After:
		return Result{}, fail(KindOutOfWindow, "check-in window has closed")
	}

	distance, radius, err := s.measure(act, pos)
	if err != nil {
		return Result{}, err
	}

	rec := repo.AttendanceRecord{
		ActivityID: activityID,
		UserID:     userID,
		Phase:      fsm.PhaseCheckedIn,
		IsPresent:  false,
		CheckIn: &repo.Capture{
			Point:          pos.point(),
			AccuracyMeters: pos.Accuracy,
			DistanceMeters: distance,
			CapturedAt:     now,
		},
		ParticipationScore: s.cfg.ProvisionalScore,
		Method:             repo.MethodGPS,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if found {
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		err = s.records.UpdateRecord(ctx, rec, fsm.PhaseNotStarted)
		if errors.Is(err, repo.ErrStale) {
			return Result{}, s.reloadConflict(ctx, activityID, userID, "check-in")
		}
	} else {
		err = s.records.InsertRecord(ctx, rec)
		if errors.Is(err, repo.ErrDuplicate) {
			return Result{}, s.reloadConflict(ctx, activityID, userID, "check-in")
		}
	}
	if err != nil {
		return Result{}, infra("store check-in", err)
	}

	s.logger.Infof("attendance: user %d checked in to activity %d at %.1f m", userID, activityID, distance)
	s.notify(rec)
	return Result{Record: rec, DistanceMeters: distance, AllowedRadius: radius}, nil
}

// CheckOut validates a check-out attempt and completes the attendance record.
func (s *Service) CheckOut(ctx context.Context, activityID, userID int64, pos Position) (Result, error) {
	act, err := s.loadEnabledActivity(ctx, activityID)
	if err != nil {
		return Result{}, err
	}

	rec, found, err := s.findRecord(ctx, activityID, userID)
	if err != nil {
		return Result{}, err
	}
	if !found || rec.CheckIn == nil || rec.Phase == fsm.PhaseNotStarted {
		return Result{}, fail(KindStateConflict, "not checked in")
	}
	if rec.Phase == fsm.PhaseCompleted || rec.CheckOut != nil {
		return Result{}, alreadyCheckedOut(rec)
	}
	if !fsm.CanTransition(rec.Phase, fsm.PhaseCompleted) {
		return Result{}, fail(KindStateConflict, "not checked in")
	}

	now := s.clock.Now()
	switch s.evaluator(act).CheckOutPosition(now) {
	case window.Before:
		return Result{}, fail(KindOutOfWindow, "check-out window is not open yet")
	case window.After:
		return Result{}, fail(KindOutOfWindow, "activity has already ended")
	}

	distance, radius, err := s.measure(act, pos)
	if err != nil {
		return Result{}, err
	}

	updated := rec
	updated.CheckOut = &repo.Capture{
		Point:          pos.point(),
		AccuracyMeters: pos.Accuracy,
		DistanceMeters: distance,
		CapturedAt:     now,
	}
	updated.Phase = fsm.PhaseCompleted
	updated.IsPresent = fsm.IsPresent(fsm.PhaseCompleted)
	updated.UpdatedAt = now

	if err := s.records.UpdateRecord(ctx, updated, fsm.PhaseCheckedIn); err != nil {
		if errors.Is(err, repo.ErrStale) {
			return Result{}, s.reloadConflict(ctx, activityID, userID, "check-out")
		}
		return Result{}, infra("store check-out", err)
	}

	s.logger.Infof("attendance: user %d checked out of activity %d at %.1f m", userID, activityID, distance)
	s.notify(updated)
	s.publishCompleted(ctx, updated)
	return Result{Record: updated, DistanceMeters: distance, AllowedRadius: radius}, nil
}

// ConfigureGeofence validates and stores the geofence of an activity. It
// reports false when the activity does not exist. Existing attendance
// records are never touched.
func (s *Service) ConfigureGeofence(ctx context.Context, activityID int64, cfg repo.GeofenceConfig) (bool, error) {
	if cfg.CheckInWindowMinutes < 0 || cfg.CheckOutWindowMinutes < 0 {
		return false, fail(KindInvalidInput, "window minutes must not be negative")
	}
	if cfg.Anchor != nil && !cfg.Anchor.Valid() {
		return false, fail(KindInvalidInput, "invalid anchor coordinates")
	}
	if cfg.Enabled {
		if cfg.Anchor == nil {
			return false, fail(KindInvalidInput, "anchor is required when geofencing is enabled")
		}
		if !geo.ValidRadius(cfg.RadiusMeters) {
			return false, fail(KindInvalidInput, "radius must be between 50 and 1000 meters")
		}
	}

	if err := s.activities.SaveGeofence(ctx, activityID, cfg); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		return false, infra("save geofence", err)
	}
	s.logger.Infof("attendance: geofence of activity %d updated (enabled=%t)", activityID, cfg.Enabled)
	return true, nil
}

// GetGeofence returns the stored geofence of an activity.
func (s *Service) GetGeofence(ctx context.Context, activityID int64) (repo.GeofenceConfig, error) {
	act, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return repo.GeofenceConfig{}, err
	}
	return act.Geofence, nil
}

// CompletedAttendance lists records the scoring consumer may award: present
// and produced by GPS.
func (s *Service) CompletedAttendance(ctx context.Context, activityID int64) ([]repo.AttendanceRecord, error) {
	if _, err := s.loadActivity(ctx, activityID); err != nil {
		return nil, err
	}
	list, err := s.records.ListCompleted(ctx, activityID)
	if err != nil {
		return nil, infra("list completed", err)
	}
	return list, nil
}

func (s *Service) loadActivity(ctx context.Context, activityID int64) (repo.Activity, error) {
	act, err := s.activities.GetActivity(ctx, activityID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Activity{}, fail(KindNotFound, "activity not found")
		}
		return repo.Activity{}, infra("load activity", err)
	}
	return act, nil
}

func (s *Service) loadEnabledActivity(ctx context.Context, activityID int64) (repo.Activity, error) {
	act, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return repo.Activity{}, err
	}
	if !act.Geofence.Enabled {
		return repo.Activity{}, fail(KindFeatureDisabled, "GPS attendance is not enabled for this activity")
	}
	return act, nil
}

func (s *Service) findRecord(ctx context.Context, activityID, userID int64) (repo.AttendanceRecord, bool, error) {
	rec, err := s.records.FindRecord(ctx, activityID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.AttendanceRecord{}, false, nil
		}
		return repo.AttendanceRecord{}, false, infra("load attendance", err)
	}
	return rec, true, nil
}

func (s *Service) evaluator(act repo.Activity) window.Evaluator {
	in := act.Geofence.CheckInWindowMinutes
	if in <= 0 {
		in = s.cfg.DefaultCheckInWindowMinutes
	}
	out := act.Geofence.CheckOutWindowMinutes
	if out <= 0 {
		out = s.cfg.DefaultCheckOutWindowMinutes
	}
	return window.New(act.StartTime, act.EndTime, in, out)
}

// measure validates the submitted fix against the activity geofence and
// returns the distance to the anchor.
func (s *Service) measure(act repo.Activity, pos Position) (float64, int, error) {
	if !geo.ValidCoordinate(pos.Lat, pos.Lon) {
		return 0, 0, fail(KindInvalidInput, "invalid coordinates")
	}
	if pos.Accuracy != nil && (*pos.Accuracy < 0 || math.IsNaN(*pos.Accuracy) || math.IsInf(*pos.Accuracy, 0)) {
		return 0, 0, fail(KindInvalidInput, "invalid GPS accuracy")
	}
	anchor := act.Geofence.Anchor
	if anchor == nil {
		return 0, 0, fail(KindConfigurationMissing, "activity location is not configured")
	}
	radius := act.Geofence.RadiusMeters
	if !geo.ValidRadius(radius) {
		return 0, 0, fail(KindInvalidInput, "configured geofence radius is invalid")
	}
	distance := pos.point().DistanceTo(*anchor)
	if !withinRadius(distance, radius) {
		return 0, 0, outOfRange(distance, radius)
	}
	return distance, radius, nil
}

func withinRadius(distance float64, radius int) bool {
	return distance <= float64(radius)
}

// reloadConflict re-reads the record after losing a write race and reports
// the state the winner left behind.
func (s *Service) reloadConflict(ctx context.Context, activityID, userID int64, op string) error {
	rec, found, err := s.findRecord(ctx, activityID, userID)
	if err != nil {
		return err
	}
	if !found {
		return infra("reload after "+op, repo.ErrStale)
	}
	s.logger.Infof("attendance: concurrent %s for user %d activity %d resolved as conflict", op, userID, activityID)
	if rec.Phase == fsm.PhaseCompleted {
		if op == "check-in" {
			return alreadyCheckedIn(rec)
		}
		return alreadyCheckedOut(rec)
	}
	if rec.Phase == fsm.PhaseCheckedIn && op == "check-in" {
		return alreadyCheckedIn(rec)
	}
	return infra("reload after "+op, repo.ErrStale)
}

func alreadyCheckedIn(rec repo.AttendanceRecord) *Failure {
	f := fail(KindStateConflict, "already checked in")
	if rec.CheckIn != nil {
		at := rec.CheckIn.CapturedAt
		f.CheckedInAt = &at
	}
	return f
}

func alreadyCheckedOut(rec repo.AttendanceRecord) *Failure {
	f := fail(KindStateConflict, "already checked out")
	if rec.CheckIn != nil {
		at := rec.CheckIn.CapturedAt
		f.CheckedInAt = &at
	}
	if rec.CheckOut != nil {
		at := rec.CheckOut.CapturedAt
		f.CheckedOutAt = &at
	}
	return f
}

func (s *Service) notify(rec repo.AttendanceRecord) {
	if s.notifier == nil {
		return
	}
	s.notifier.PushStatus(rec.UserID, ws.StatusEvent{
		Type:       ws.TypeStatus,
		ActivityID: rec.ActivityID,
		Phase:      string(rec.Phase),
		IsPresent:  rec.IsPresent,
		At:         rec.UpdatedAt,
	})
}

func (s *Service) publishCompleted(ctx context.Context, rec repo.AttendanceRecord) {
	if s.publisher == nil || rec.CheckIn == nil || rec.CheckOut == nil {
		return
	}
	id, err := s.publisher.PublishCompleted(ctx, events.Completed{
		ActivityID:         rec.ActivityID,
		UserID:             rec.UserID,
		Method:             string(rec.Method),
		ParticipationScore: rec.ParticipationScore,
		CheckedInAt:        rec.CheckIn.CapturedAt,
		CheckedOutAt:       rec.CheckOut.CapturedAt,
	})
	if err != nil {
		s.logger.Errorf("attendance: publish completion for user %d activity %d: %v", rec.UserID, rec.ActivityID, err)
		return
	}
	s.logger.Infof("attendance: completion event %s published", id)
}
