package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"presenceBack/internal/attendance/fsm"
	"presenceBack/internal/attendance/geo"
)

const recordColumns = `id, activity_id, user_id, phase, is_present, check_in_lat, check_in_lon, check_in_accuracy_m, check_in_distance_m, check_in_at, check_out_lat, check_out_lon, check_out_accuracy_m, check_out_distance_m, check_out_at, participation_score, method, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type captureColumns struct {
	lat, lon, accuracy, distance sql.NullFloat64
	at                           sql.NullTime
}

func (c captureColumns) capture(loc *time.Location) *Capture {
	if !c.at.Valid || !c.lat.Valid || !c.lon.Valid {
		return nil
	}
	out := &Capture{
		Point:          geo.GeoPoint{Lat: c.lat.Float64, Lon: c.lon.Float64},
		DistanceMeters: c.distance.Float64,
		CapturedAt:     c.at.Time.In(loc),
	}
	if c.accuracy.Valid {
		v := c.accuracy.Float64
		out.AccuracyMeters = &v
	}
	return out
}

func captureArgs(c *Capture) []interface{} {
	if c == nil {
		return []interface{}{nil, nil, nil, nil, nil}
	}
	var accuracy interface{}
	if c.AccuracyMeters != nil {
		accuracy = *c.AccuracyMeters
	}
	return []interface{}{c.Point.Lat, c.Point.Lon, accuracy, c.DistanceMeters, c.CapturedAt.UTC()}
}

func (s *SQLStore) scanRecord(row rowScanner) (AttendanceRecord, error) {
	var (
		rec     AttendanceRecord
		phase   string
		method  string
		in, out captureColumns
	)
	err := row.Scan(&rec.ID, &rec.ActivityID, &rec.UserID, &phase, &rec.IsPresent,
		&in.lat, &in.lon, &in.accuracy, &in.distance, &in.at,
		&out.lat, &out.lon, &out.accuracy, &out.distance, &out.at,
		&rec.ParticipationScore, &method, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return AttendanceRecord{}, err
	}
	rec.Phase = fsm.Phase(phase)
	rec.Method = Method(method)
	rec.CheckIn = in.capture(s.loc)
	rec.CheckOut = out.capture(s.loc)
	rec.CreatedAt = rec.CreatedAt.In(s.loc)
	rec.UpdatedAt = rec.UpdatedAt.In(s.loc)
	return rec, nil
}

// FindRecord fetches the attendance record of a user for an activity.
func (s *SQLStore) FindRecord(ctx context.Context, activityID, userID int64) (AttendanceRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+recordColumns+` FROM attendance_records WHERE activity_id = ? AND user_id = ?`), activityID, userID)
	rec, err := s.scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return AttendanceRecord{}, ErrNotFound
	}
	if err != nil {
		return AttendanceRecord{}, err
	}
	return rec, nil
}

// InsertRecord creates a record. A uniqueness violation on (activity_id, user_id)
// is reported as ErrDuplicate.
func (s *SQLStore) InsertRecord(ctx context.Context, rec AttendanceRecord) error {
	args := []interface{}{rec.ActivityID, rec.UserID, string(rec.Phase), rec.IsPresent}
	args = append(args, captureArgs(rec.CheckIn)...)
	args = append(args, captureArgs(rec.CheckOut)...)
	args = append(args, rec.ParticipationScore, string(rec.Method), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())

	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`INSERT INTO attendance_records (activity_id, user_id, phase, is_present, check_in_lat, check_in_lon, check_in_accuracy_m, check_in_distance_m, check_in_at, check_out_lat, check_out_lon, check_out_accuracy_m, check_out_distance_m, check_out_at, participation_score, method, created_at, updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateRecord overwrites a record when its stored phase still equals expected.
func (s *SQLStore) UpdateRecord(ctx context.Context, rec AttendanceRecord, expected fsm.Phase) error {
	args := []interface{}{string(rec.Phase), rec.IsPresent}
	args = append(args, captureArgs(rec.CheckIn)...)
	args = append(args, captureArgs(rec.CheckOut)...)
	args = append(args, rec.ParticipationScore, string(rec.Method), rec.UpdatedAt.UTC(), rec.ActivityID, rec.UserID, string(expected))

	res, err := s.db.ExecContext(ctx, s.dialect.rebind(`UPDATE attendance_records SET phase = ?, is_present = ?, check_in_lat = ?, check_in_lon = ?, check_in_accuracy_m = ?, check_in_distance_m = ?, check_in_at = ?, check_out_lat = ?, check_out_lon = ?, check_out_accuracy_m = ?, check_out_distance_m = ?, check_out_at = ?, participation_score = ?, method = ?, updated_at = ? WHERE activity_id = ? AND user_id = ? AND phase = ?`), args...)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStale
	}
	return nil
}

// ListCompleted returns present GPS records of an activity ordered by check-out time.
func (s *SQLStore) ListCompleted(ctx context.Context, activityID int64) ([]AttendanceRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`SELECT `+recordColumns+` FROM attendance_records WHERE activity_id = ? AND is_present = ? AND method = ? ORDER BY check_out_at ASC`), activityID, true, string(MethodGPS))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []AttendanceRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
