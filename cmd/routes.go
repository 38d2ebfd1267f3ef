package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"presenceBack/internal/attendance"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() (http.Handler, error) {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	apiMiddleware := standardMiddleware.Append(makeResponseJSON)
	authMiddleware := apiMiddleware.Append(app.JWTMiddlewareWithRole("user"))
	adminAuthMiddleware := apiMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	mux.Get("/health", apiMiddleware.ThenFunc(app.health))

	// Attendance
	if err := attendance.RegisterAttendanceRoutes(mux, authMiddleware, adminAuthMiddleware, app.attendance); err != nil {
		return nil, err
	}

	return mux, nil
}

func (app *application) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
