package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"presenceBack/internal/attendance/geo"
	"presenceBack/internal/attendance/timeutil"
)

// SQLStore provides access to activities, registrations and attendance records.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	loc     *time.Location
}

// NewSQLStore constructs a SQLStore. loc is the zone activity schedules are authored in.
func NewSQLStore(db *sql.DB, dialect Dialect, loc *time.Location) *SQLStore {
	if loc == nil {
		loc = time.Local
	}
	return &SQLStore{db: db, dialect: dialect, loc: loc}
}

// GetActivity fetches an activity with its geofence configuration.
func (s *SQLStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var (
		a          Activity
		lat, lon   sql.NullFloat64
		radius     sql.NullInt64
		inWindow   sql.NullInt64
		outWindow  sql.NullInt64
		geoEnabled bool
	)
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT id, title, start_time, end_time, geofence_enabled, geofence_lat, geofence_lon, geofence_radius_m, checkin_window_min, checkout_window_min FROM activities WHERE id = ?`), id)
	err := row.Scan(&a.ID, &a.Title, &a.StartTime, &a.EndTime, &geoEnabled, &lat, &lon, &radius, &inWindow, &outWindow)
	if errors.Is(err, sql.ErrNoRows) {
		return Activity{}, ErrNotFound
	}
	if err != nil {
		return Activity{}, err
	}

	a.StartTime = timeutil.Wall(a.StartTime, s.loc)
	a.EndTime = timeutil.Wall(a.EndTime, s.loc)
	a.Geofence = GeofenceConfig{
		Enabled:               geoEnabled,
		RadiusMeters:          int(radius.Int64),
		CheckInWindowMinutes:  int(inWindow.Int64),
		CheckOutWindowMinutes: int(outWindow.Int64),
	}
	if lat.Valid && lon.Valid {
		a.Geofence.Anchor = &geo.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
	}
	return a, nil
}

// SaveGeofence replaces the geofence configuration of an activity.
// Attendance rows are left untouched.
func (s *SQLStore) SaveGeofence(ctx context.Context, activityID int64, cfg GeofenceConfig) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var x int
	err = tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT 1 FROM activities WHERE id = ?`), activityID).Scan(&x)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return err
	}
	if err != nil {
		return err
	}

	var lat, lon sql.NullFloat64
	if cfg.Anchor != nil {
		lat = sql.NullFloat64{Float64: cfg.Anchor.Lat, Valid: true}
		lon = sql.NullFloat64{Float64: cfg.Anchor.Lon, Valid: true}
	}
	if _, err = tx.ExecContext(ctx, s.dialect.rebind(`UPDATE activities SET geofence_enabled = ?, geofence_lat = ?, geofence_lon = ?, geofence_radius_m = ?, checkin_window_min = ?, checkout_window_min = ? WHERE id = ?`),
		cfg.Enabled, lat, lon, cfg.RadiusMeters, cfg.CheckInWindowMinutes, cfg.CheckOutWindowMinutes, activityID); err != nil {
		return err
	}
	return tx.Commit()
}

// IsRegistered reports whether the user holds an active registration for the activity.
func (s *SQLStore) IsRegistered(ctx context.Context, activityID, userID int64) (bool, error) {
	var x int
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT 1 FROM activity_registrations WHERE activity_id = ? AND user_id = ? AND status IN ('registered', 'approved') LIMIT 1`), activityID, userID).Scan(&x)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
