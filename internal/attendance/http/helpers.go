package attendancehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"presenceBack/internal/attendance/lifecycle"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
)

// WithIdentity stores the authenticated caller on ctx.
func WithIdentity(ctx context.Context, userID int64, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFromContext returns the authenticated caller id.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

// RoleFromContext returns the authenticated caller role.
func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(":" + name))
	if v == "" {
		return 0, errors.New("missing " + name)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func contextWithTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Success: false, Code: code, Error: message})
}

type errorResponse struct {
	Success        bool       `json:"success"`
	Code           string     `json:"code"`
	Error          string     `json:"error"`
	DistanceMeters *float64   `json:"distance_meters,omitempty"`
	AllowedRadius  *int       `json:"allowed_radius,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckedOutAt   *time.Time `json:"checked_out_at,omitempty"`
}

func statusForKind(kind lifecycle.FailureKind) int {
	switch kind {
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindFeatureDisabled, lifecycle.KindNotRegistered:
		return http.StatusForbidden
	case lifecycle.KindStateConflict:
		return http.StatusConflict
	case lifecycle.KindOutOfWindow, lifecycle.KindOutOfRange:
		return http.StatusUnprocessableEntity
	case lifecycle.KindInvalidInput:
		return http.StatusBadRequest
	case lifecycle.KindConfigurationMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
