package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"presenceBack/internal/attendance/fsm"
)

type recordKey struct {
	activityID int64
	userID     int64
}

// MemoryStore is an in-process store with the same uniqueness and
// compare-and-set guarantees as SQLStore.
type MemoryStore struct {
	mu            sync.RWMutex
	activities    map[int64]Activity
	registrations map[recordKey]struct{}
	records       map[recordKey]AttendanceRecord
	nextID        int64
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		activities:    make(map[int64]Activity),
		registrations: make(map[recordKey]struct{}),
		records:       make(map[recordKey]AttendanceRecord),
	}
}

// PutActivity inserts or replaces an activity.
func (m *MemoryStore) PutActivity(a Activity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activities[a.ID] = a
}

// Register enrolls a user in an activity.
func (m *MemoryStore) Register(activityID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrations[recordKey{activityID, userID}] = struct{}{}
}

func (m *MemoryStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	if !ok {
		return Activity{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) SaveGeofence(ctx context.Context, activityID int64, cfg GeofenceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[activityID]
	if !ok {
		return ErrNotFound
	}
	if cfg.Anchor != nil {
		anchor := *cfg.Anchor
		cfg.Anchor = &anchor
	}
	a.Geofence = cfg
	m.activities[activityID] = a
	return nil
}

func (m *MemoryStore) IsRegistered(ctx context.Context, activityID, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.registrations[recordKey{activityID, userID}]
	return ok, nil
}

func (m *MemoryStore) FindRecord(ctx context.Context, activityID, userID int64) (AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[recordKey{activityID, userID}]
	if !ok {
		return AttendanceRecord{}, ErrNotFound
	}
	return rec.clone(), nil
}

func (m *MemoryStore) InsertRecord(ctx context.Context, rec AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{rec.ActivityID, rec.UserID}
	if _, ok := m.records[key]; ok {
		return ErrDuplicate
	}
	m.nextID++
	rec.ID = m.nextID
	m.records[key] = rec.clone()
	return nil
}

func (m *MemoryStore) UpdateRecord(ctx context.Context, rec AttendanceRecord, expected fsm.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := recordKey{rec.ActivityID, rec.UserID}
	cur, ok := m.records[key]
	if !ok || cur.Phase != expected {
		return ErrStale
	}
	rec.ID = cur.ID
	rec.CreatedAt = cur.CreatedAt
	m.records[key] = rec.clone()
	return nil
}

func (m *MemoryStore) ListCompleted(ctx context.Context, activityID int64) ([]AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var items []AttendanceRecord
	for key, rec := range m.records {
		if key.activityID != activityID || !rec.IsPresent || rec.Method != MethodGPS {
			continue
		}
		items = append(items, rec.clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return checkOutAt(items[i]).Before(checkOutAt(items[j]))
	})
	return items, nil
}

func checkOutAt(rec AttendanceRecord) time.Time {
	if rec.CheckOut != nil {
		return rec.CheckOut.CapturedAt
	}
	return time.Time{}
}
