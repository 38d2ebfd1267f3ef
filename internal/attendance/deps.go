package attendance

import (
	"database/sql"
	"errors"

	"github.com/redis/go-redis/v9"

	"presenceBack/internal/attendance/repo"
	"presenceBack/internal/attendance/timeutil"
)

// Logger provides minimal logging required by the attendance module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// AttendanceDeps groups external dependencies needed by the attendance module.
type AttendanceDeps struct {
	DB      *sql.DB
	Dialect repo.Dialect
	// Memory replaces DB for local runs without a database.
	Memory *repo.MemoryStore
	// RDB is optional; without it completion events are not published.
	RDB    *redis.Client
	Logger Logger
	Config AttendanceConfig
	// Clock overrides the schedule-zone clock built from Config.
	Clock  timeutil.Clock
	module *moduleState
}

// Validate ensures required dependencies are provided.
func (d *AttendanceDeps) Validate() error {
	if d.DB == nil && d.Memory == nil {
		return errors.New("attendance deps: DB or Memory store is required")
	}
	if d.Logger == nil {
		return errors.New("attendance deps: Logger is required")
	}
	if d.Config.Timezone == "" {
		d.Config.Timezone = timeutil.DefaultZone
	}
	return nil
}
