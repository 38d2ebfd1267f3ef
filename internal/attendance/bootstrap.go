package attendance

import (
	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"presenceBack/internal/attendance/events"
	attendancehttp "presenceBack/internal/attendance/http"
	"presenceBack/internal/attendance/lifecycle"
	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/attendance/timeutil"
	"presenceBack/internal/attendance/ws"
)

type store interface {
	lifecycle.ActivityRepository
	lifecycle.RegistrationRepository
	lifecycle.RecordRepository
}

type moduleState struct {
	store     store
	statusHub *ws.StatusHub
	publisher *events.RedisPublisher
	service   *lifecycle.Service
	server    *attendancehttp.Server
}

func ensureModule(deps *AttendanceDeps) (*moduleState, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if deps.module != nil {
		return deps.module, nil
	}

	loc := timeutil.LoadLocation(deps.Config.Timezone, deps.Config.FallbackOffset)
	clock := deps.Clock
	if clock == nil {
		clock = timeutil.NewLocalClock(deps.Config.Timezone, deps.Config.FallbackOffset)
	}

	var st store
	if deps.DB != nil {
		st = repo.NewSQLStore(deps.DB, deps.Dialect, loc)
	} else {
		st = deps.Memory
	}

	statusHub := ws.NewStatusHub(deps.Logger)
	lcDeps := lifecycle.Deps{
		Activities:    st,
		Registrations: st,
		Records:       st,
		Clock:         clock,
		Notifier:      statusHub,
		Logger:        deps.Logger,
	}
	var publisher *events.RedisPublisher
	if deps.RDB != nil {
		publisher = events.NewRedisPublisher(deps.RDB, deps.Config.EventsStream)
		lcDeps.Publisher = publisher
	} else {
		deps.Logger.Infof("attendance: redis not configured, completion events disabled")
	}

	service := lifecycle.NewService(lifecycle.Config{
		DefaultCheckInWindowMinutes:  deps.Config.DefaultCheckInWindowMinutes,
		DefaultCheckOutWindowMinutes: deps.Config.DefaultCheckOutWindowMinutes,
		ProvisionalScore:             deps.Config.ProvisionalScore,
	}, lcDeps)
	server := attendancehttp.NewServer(deps.Logger, service, statusHub)

	deps.module = &moduleState{
		store:     st,
		statusHub: statusHub,
		publisher: publisher,
		service:   service,
		server:    server,
	}
	return deps.module, nil
}

// RegisterAttendanceRoutes wires HTTP and WebSocket routes into the provided mux.
func RegisterAttendanceRoutes(mux *pat.PatternServeMux, user, admin alice.Chain, deps *AttendanceDeps) error {
	module, err := ensureModule(deps)
	if err != nil {
		return err
	}
	module.server.RegisterRoutes(mux, user, admin)
	return nil
}

// Service returns the attendance engine built from deps.
func Service(deps *AttendanceDeps) (*lifecycle.Service, error) {
	module, err := ensureModule(deps)
	if err != nil {
		return nil, err
	}
	return module.service, nil
}
