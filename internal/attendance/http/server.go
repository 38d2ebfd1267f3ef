package attendancehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"presenceBack/internal/attendance/fsm"
	"presenceBack/internal/attendance/lifecycle"
	"presenceBack/internal/attendance/repo"
)

// AttendanceService is the engine surface exposed over HTTP.
type AttendanceService interface {
	CheckIn(ctx context.Context, activityID, userID int64, pos lifecycle.Position) (lifecycle.Result, error)
	CheckOut(ctx context.Context, activityID, userID int64, pos lifecycle.Position) (lifecycle.Result, error)
	GetStatus(ctx context.Context, activityID, userID int64) (lifecycle.StatusView, error)
	ConfigureGeofence(ctx context.Context, activityID int64, cfg repo.GeofenceConfig) (bool, error)
	GetGeofence(ctx context.Context, activityID int64) (repo.GeofenceConfig, error)
	CompletedAttendance(ctx context.Context, activityID int64) ([]repo.AttendanceRecord, error)
}

// StatusSocket serves the live status stream of one user.
type StatusSocket interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID int64)
}

// Server handles HTTP endpoints for the attendance module.
type Server struct {
	logger  lifecycle.Logger
	service AttendanceService
	hub     StatusSocket
}

// NewServer constructs Server.
func NewServer(logger lifecycle.Logger, service AttendanceService, hub StatusSocket) *Server {
	return &Server{logger: logger, service: service, hub: hub}
}

// RegisterRoutes registers attendance routes on mux. user guards participant
// endpoints, admin guards configuration and reporting endpoints.
func (s *Server) RegisterRoutes(mux *pat.PatternServeMux, user, admin alice.Chain) {
	mux.Post("/api/v1/activities/:id/check-in", user.ThenFunc(s.handleCheckIn))
	mux.Post("/api/v1/activities/:id/check-out", user.ThenFunc(s.handleCheckOut))
	mux.Get("/api/v1/activities/:id/attendance/status", user.ThenFunc(s.handleStatus))
	mux.Get("/api/v1/activities/:id/attendance/completed", admin.ThenFunc(s.handleCompleted))
	mux.Get("/api/v1/activities/:id/geofence", admin.ThenFunc(s.handleGetGeofence))
	mux.Put("/api/v1/activities/:id/geofence", admin.ThenFunc(s.handlePutGeofence))
	mux.Get("/ws/attendance", user.ThenFunc(s.handleWS))
}

type positionPayload struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}

func (p positionPayload) validate() string {
	if p.Latitude == nil || p.Longitude == nil {
		return "latitude and longitude are required"
	}
	return ""
}

type captureResponse struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	DistanceMeters float64   `json:"distance_meters"`
	CapturedAt     time.Time `json:"captured_at"`
}

func newCaptureResponse(c *repo.Capture) *captureResponse {
	if c == nil {
		return nil
	}
	return &captureResponse{
		Latitude:       c.Point.Lat,
		Longitude:      c.Point.Lon,
		AccuracyMeters: c.AccuracyMeters,
		DistanceMeters: c.DistanceMeters,
		CapturedAt:     c.CapturedAt,
	}
}

type recordResponse struct {
	ActivityID         int64            `json:"activity_id"`
	UserID             int64            `json:"user_id"`
	Phase              fsm.Phase        `json:"phase"`
	IsPresent          bool             `json:"is_present"`
	ParticipationScore float64          `json:"participation_score"`
	Method             repo.Method      `json:"method"`
	CheckIn            *captureResponse `json:"check_in,omitempty"`
	CheckOut           *captureResponse `json:"check_out,omitempty"`
}

func newRecordResponse(rec repo.AttendanceRecord) recordResponse {
	return recordResponse{
		ActivityID:         rec.ActivityID,
		UserID:             rec.UserID,
		Phase:              rec.Phase,
		IsPresent:          rec.IsPresent,
		ParticipationScore: rec.ParticipationScore,
		Method:             rec.Method,
		CheckIn:            newCaptureResponse(rec.CheckIn),
		CheckOut:           newCaptureResponse(rec.CheckOut),
	}
}

type transitionResponse struct {
	Success        bool      `json:"success"`
	Phase          fsm.Phase `json:"phase"`
	IsPresent      bool      `json:"is_present"`
	DistanceMeters float64   `json:"distance_meters"`
	AllowedRadius  int       `json:"allowed_radius"`
}

type transitionFunc func(ctx context.Context, activityID, userID int64, pos lifecycle.Position) (lifecycle.Result, error)

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.CheckIn)
}

func (s *Server) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	s.handleTransition(w, r, s.service.CheckOut)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user id")
		return
	}
	activityID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), err.Error())
		return
	}
	var req positionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), msg)
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	res, err := fn(ctx, activityID, userID, lifecycle.Position{
		Lat:      *req.Latitude,
		Lon:      *req.Longitude,
		Accuracy: req.Accuracy,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Success:        true,
		Phase:          res.Record.Phase,
		IsPresent:      res.Record.IsPresent,
		DistanceMeters: res.DistanceMeters,
		AllowedRadius:  res.AllowedRadius,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user id")
		return
	}
	activityID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), err.Error())
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	view, err := s.service.GetStatus(ctx, activityID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetGeofence(w http.ResponseWriter, r *http.Request) {
	activityID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), err.Error())
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	cfg, err := s.service.GetGeofence(ctx, activityID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutGeofence(w http.ResponseWriter, r *http.Request) {
	activityID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), err.Error())
		return
	}
	var cfg repo.GeofenceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), "invalid json")
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	saved, err := s.service.ConfigureGeofence(ctx, activityID, cfg)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !saved {
		writeError(w, http.StatusNotFound, string(lifecycle.KindNotFound), "activity not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "geofence": cfg})
}

func (s *Server) handleCompleted(w http.ResponseWriter, r *http.Request) {
	activityID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(lifecycle.KindInvalidInput), err.Error())
		return
	}

	ctx, cancel := contextWithTimeout(r)
	defer cancel()

	list, err := s.service.CompletedAttendance(ctx, activityID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	items := make([]recordResponse, 0, len(list))
	for _, rec := range list {
		items = append(items, newRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing user id")
		return
	}
	s.hub.ServeWS(w, r, userID)
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if f, ok := lifecycle.AsFailure(err); ok {
		writeJSON(w, statusForKind(f.Kind), errorResponse{
			Success:        false,
			Code:           string(f.Kind),
			Error:          f.Message,
			DistanceMeters: f.DistanceMeters,
			AllowedRadius:  f.AllowedRadius,
			CheckedInAt:    f.CheckedInAt,
			CheckedOutAt:   f.CheckedOutAt,
		})
		return
	}
	s.logger.Errorf("attendance: %s %s: %v", r.Method, r.URL.Path, err)
	if errors.Is(err, lifecycle.ErrInfrastructure) || errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "service temporarily unavailable, retry the request")
		return
	}
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}
