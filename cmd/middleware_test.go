package main

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	attendancehttp "presenceBack/internal/attendance/http"
	"presenceBack/utils"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	tokens, err := utils.NewManager("test-secret")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	discard := log.New(io.Discard, "", 0)
	return &application{errorLog: discard, infoLog: discard, tokens: tokens}
}

func TestJWTMiddleware(t *testing.T) {
	app := newTestApp(t)
	userToken, _ := app.tokens.NewJWT(42, "user", time.Hour)
	adminToken, _ := app.tokens.NewJWT(1, "admin", time.Hour)

	var seen int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = attendancehttp.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		role   string
		path   string
		header string
		status int
		userID int64
	}{
		{"missing token", "user", "/api/v1/activities/1/attendance/status", "", http.StatusUnauthorized, 0},
		{"garbage token", "user", "/api/v1/activities/1/attendance/status", "Bearer nope", http.StatusUnauthorized, 0},
		{"user token", "user", "/api/v1/activities/1/attendance/status", "Bearer " + userToken, http.StatusNoContent, 42},
		{"user on admin route", "admin", "/api/v1/activities/1/geofence", "Bearer " + userToken, http.StatusForbidden, 0},
		{"admin on admin route", "admin", "/api/v1/activities/1/geofence", "Bearer " + adminToken, http.StatusNoContent, 1},
		{"websocket query token", "user", "/ws/attendance?token=" + userToken, "", http.StatusNoContent, 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			app.JWTMiddleware(next, tc.role).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if seen != tc.userID {
				t.Fatalf("expected user %d in context, got %d", tc.userID, seen)
			}
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApp(t)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestLogRequestSetsRequestID(t *testing.T) {
	app := newTestApp(t)
	h := app.logRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}
