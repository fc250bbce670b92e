package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// DefaultStream is the Redis stream events are appended to.
const DefaultStream = "bifrost:events"

// defaultEmitTimeout bounds a single XADD so callers are never blocked for long.
const defaultEmitTimeout = 2 * time.Second

// RedisStreamSink appends events to a capped Redis stream.
//
// Stream entry fields:
//
//	event_id  uuid v4 (idempotency key for consumers)
//	name      event name
//	params    JSON object
//	ts        unix milliseconds
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
	logger *slog.Logger
	now    func() time.Time
}

var _ Sink = (*RedisStreamSink)(nil)

// NewRedisStreamSink creates a stream sink. maxLen <= 0 disables trimming.
func NewRedisStreamSink(client *redis.Client, stream string, maxLen int64, logger *slog.Logger) *RedisStreamSink {
	validation.AssertNotNil(client, "redis client")
	if stream == "" {
		stream = DefaultStream
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.With("component", "redis_event_sink"),
		now:    time.Now,
	}
}

// Emit appends the event to the stream. Failures are logged and dropped.
func (s *RedisStreamSink) Emit(ctx context.Context, name string, params map[string]any) {
	payload, err := json.Marshal(params)
	if err != nil {
		s.fail(name, "encode", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultEmitTimeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event_id": uuid.NewString(),
			"name":     name,
			"params":   string(payload),
			"ts":       strconv.FormatInt(s.now().UnixMilli(), 10),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.fail(name, "xadd", err)
	}
}

func (s *RedisStreamSink) fail(name, op string, err error) {
	observability.SinkFailures.WithLabelValues("redis").Inc()
	s.logger.Warn("failed to emit event",
		slog.String("event", name),
		slog.String("op", op),
		slog.String("stream", s.stream),
		slog.String("error", err.Error()),
	)
}
