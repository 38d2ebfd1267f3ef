package attendance

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"presenceBack/internal/attendance/events"
	"presenceBack/internal/attendance/timeutil"
)

const (
	defaultCheckInWindowMinutes  = 10
	defaultCheckOutWindowMinutes = 10
	defaultProvisionalScore      = 1
	defaultFallbackOffset        = 7 * time.Hour
)

// AttendanceConfig holds runtime configuration for the attendance module.
type AttendanceConfig struct {
	Timezone                     string
	FallbackOffset               time.Duration
	DefaultCheckInWindowMinutes  int
	DefaultCheckOutWindowMinutes int
	ProvisionalScore             float64
	EventsStream                 string
}

// LoadAttendanceConfig reads configuration from environment variables and applies defaults.
func LoadAttendanceConfig() (AttendanceConfig, error) {
	cfg := AttendanceConfig{
		Timezone:                     timeutil.DefaultZone,
		FallbackOffset:               defaultFallbackOffset,
		DefaultCheckInWindowMinutes:  defaultCheckInWindowMinutes,
		DefaultCheckOutWindowMinutes: defaultCheckOutWindowMinutes,
		ProvisionalScore:             defaultProvisionalScore,
		EventsStream:                 events.DefaultStream,
	}

	if v := os.Getenv("ATTENDANCE_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}

	if v := os.Getenv("ATTENDANCE_TZ_FALLBACK_OFFSET"); v != "" {
		offset, err := timeutil.ParseOffset(v)
		if err != nil {
			return AttendanceConfig{}, fmt.Errorf("parse ATTENDANCE_TZ_FALLBACK_OFFSET: %w", err)
		}
		cfg.FallbackOffset = offset
	}

	if v, err := readIntEnv("ATTENDANCE_CHECKIN_WINDOW_MINUTES"); err != nil {
		return AttendanceConfig{}, fmt.Errorf("parse ATTENDANCE_CHECKIN_WINDOW_MINUTES: %w", err)
	} else if v != nil {
		cfg.DefaultCheckInWindowMinutes = *v
	}

	if v, err := readIntEnv("ATTENDANCE_CHECKOUT_WINDOW_MINUTES"); err != nil {
		return AttendanceConfig{}, fmt.Errorf("parse ATTENDANCE_CHECKOUT_WINDOW_MINUTES: %w", err)
	} else if v != nil {
		cfg.DefaultCheckOutWindowMinutes = *v
	}

	if v := os.Getenv("ATTENDANCE_PROVISIONAL_SCORE"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return AttendanceConfig{}, fmt.Errorf("parse ATTENDANCE_PROVISIONAL_SCORE: %w", err)
		}
		cfg.ProvisionalScore = score
	}

	if v := os.Getenv("ATTENDANCE_EVENTS_STREAM"); v != "" {
		cfg.EventsStream = v
	}

	if cfg.DefaultCheckInWindowMinutes <= 0 || cfg.DefaultCheckOutWindowMinutes <= 0 {
		return AttendanceConfig{}, fmt.Errorf("attendance window minutes must be positive")
	}
	if cfg.ProvisionalScore < 0 {
		return AttendanceConfig{}, fmt.Errorf("ATTENDANCE_PROVISIONAL_SCORE must not be negative")
	}

	return cfg, nil
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
