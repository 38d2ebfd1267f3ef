package attendance

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"presenceBack/internal/attendance/geo"
	attendancehttp "presenceBack/internal/attendance/http"
	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/attendance/timeutil"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

func TestDepsValidate(t *testing.T) {
	if err := (&AttendanceDeps{Logger: testLogger{}}).Validate(); err == nil {
		t.Fatal("expected error without a store")
	}
	if err := (&AttendanceDeps{Memory: repo.NewMemoryStore()}).Validate(); err == nil {
		t.Fatal("expected error without a logger")
	}
}

func TestRegisterAttendanceRoutesWithMemoryStore(t *testing.T) {
	start := time.Date(2024, 1, 15, 8, 0, 0, 0, time.FixedZone("ICT", 7*60*60))
	mem := repo.NewMemoryStore()
	mem.PutActivity(repo.Activity{
		ID:        3,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Geofence: repo.GeofenceConfig{
			Enabled:      true,
			Anchor:       &geo.GeoPoint{Lat: 10, Lon: 106},
			RadiusMeters: 200,
		},
	})
	mem.Register(3, 5)

	cfg, err := LoadAttendanceConfig()
	if err != nil {
		t.Fatalf("LoadAttendanceConfig: %v", err)
	}
	deps := &AttendanceDeps{
		Memory: mem,
		Logger: testLogger{},
		Config: cfg,
		Clock:  timeutil.FixedClock{At: start.Add(3 * time.Minute)},
	}

	asUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(attendancehttp.WithIdentity(r.Context(), 5, "user")))
		})
	}
	mux := pat.New()
	if err := RegisterAttendanceRoutes(mux, alice.New(asUser), alice.New(asUser), deps); err != nil {
		t.Fatalf("RegisterAttendanceRoutes: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities/3/check-in", strings.NewReader(`{"latitude":10.0001,"longitude":106}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	svc, err := Service(deps)
	if err != nil {
		t.Fatalf("Service: %v", err)
	}
	if svc.Config().ProvisionalScore != 1 {
		t.Fatalf("unexpected provisional score %v", svc.Config().ProvisionalScore)
	}
}
