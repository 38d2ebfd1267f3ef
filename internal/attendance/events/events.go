package events

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TypeCompleted is the event type emitted when a check-out completes a record.
const TypeCompleted = "attendance.completed"

// DefaultStream is the Redis stream completion events are appended to.
const DefaultStream = "attendance:completed"

const defaultMaxLen = 10000

// Completed describes an attendance record that reached the completed phase.
type Completed struct {
	ID                 string
	ActivityID         int64
	UserID             int64
	Method             string
	ParticipationScore float64
	CheckedInAt        time.Time
	CheckedOutAt       time.Time
}

// Values flattens the event into stream fields.
func (e Completed) Values() map[string]interface{} {
	return map[string]interface{}{
		"id":                  e.ID,
		"type":                TypeCompleted,
		"activity_id":         strconv.FormatInt(e.ActivityID, 10),
		"user_id":             strconv.FormatInt(e.UserID, 10),
		"method":              e.Method,
		"participation_score": strconv.FormatFloat(e.ParticipationScore, 'f', -1, 64),
		"checked_in_at":       e.CheckedInAt.Format(time.RFC3339),
		"checked_out_at":      e.CheckedOutAt.Format(time.RFC3339),
	}
}

// RedisPublisher appends completion events to a Redis stream read by the
// scoring consumer.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

// NewRedisPublisher creates a publisher for stream. An empty stream name uses DefaultStream.
func NewRedisPublisher(rdb *redis.Client, stream string) *RedisPublisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{rdb: rdb, stream: stream, maxLen: defaultMaxLen}
}

// Stream returns the stream name.
func (p *RedisPublisher) Stream() string {
	return p.stream
}

// PublishCompleted appends the event and returns its stream entry id.
func (p *RedisPublisher) PublishCompleted(ctx context.Context, ev Completed) (string, error) {
	if p == nil || p.rdb == nil {
		return "", errors.New("events: redis client is not configured")
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: ev.Values(),
	}).Result()
}
