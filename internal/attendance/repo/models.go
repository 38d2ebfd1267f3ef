package repo

import (
	"errors"
	"time"

	"presenceBack/internal/attendance/fsm"
	"presenceBack/internal/attendance/geo"
)

var (
	// ErrNotFound indicates a missing activity or attendance record.
	ErrNotFound = errors.New("attendance: not found")
	// ErrDuplicate is returned when an insert hits the (activity_id, user_id) unique key.
	ErrDuplicate = errors.New("attendance: record already exists")
	// ErrStale is returned when a compare-and-set update matched no row.
	ErrStale = errors.New("attendance: record changed concurrently")
)

// Method records how an attendance record was produced.
type Method string

const (
	MethodGPS    Method = "gps"
	MethodManual Method = "manual"
	MethodAdmin  Method = "admin"
)

// GeofenceConfig is the geofence attached to an activity.
type GeofenceConfig struct {
	Enabled               bool          `json:"enabled"`
	Anchor                *geo.GeoPoint `json:"anchor,omitempty"`
	RadiusMeters          int           `json:"radius_meters"`
	CheckInWindowMinutes  int           `json:"check_in_window_minutes"`
	CheckOutWindowMinutes int           `json:"check_out_window_minutes"`
}

// Activity is the subset of the activities table the attendance engine reads.
type Activity struct {
	ID        int64
	Title     string
	StartTime time.Time
	EndTime   time.Time
	Geofence  GeofenceConfig
}

// Capture is one validated position fix.
type Capture struct {
	Point          geo.GeoPoint
	AccuracyMeters *float64
	DistanceMeters float64
	CapturedAt     time.Time
}

// AttendanceRecord represents the attendance_records table.
type AttendanceRecord struct {
	ID                 int64
	ActivityID         int64
	UserID             int64
	Phase              fsm.Phase
	IsPresent          bool
	CheckIn            *Capture
	CheckOut           *Capture
	ParticipationScore float64
	Method             Method
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (r AttendanceRecord) clone() AttendanceRecord {
	out := r
	if r.CheckIn != nil {
		c := cloneCapture(*r.CheckIn)
		out.CheckIn = &c
	}
	if r.CheckOut != nil {
		c := cloneCapture(*r.CheckOut)
		out.CheckOut = &c
	}
	return out
}

func cloneCapture(c Capture) Capture {
	if c.AccuracyMeters != nil {
		v := *c.AccuracyMeters
		c.AccuracyMeters = &v
	}
	return c
}
