package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one catalog operation and logs its completion at debug level.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
}

// StartSpan derives a logger tagged with the operation name and a fresh span id. Spans
// opened outside a request get their own id in place of the request id.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx)
	if RequestIDFromContext(ctx) == "" {
		requestID := uuid.NewString()
		ctx = WithRequestID(ctx, requestID)
		logger = logger.With(slog.String("request_id", requestID))
	}
	logger = logger.With(
		slog.String("op", name),
		slog.String("span_id", uuid.NewString()[:8]),
	)

	return WithLogger(ctx, logger), &Span{name: name, logger: logger, start: time.Now()}
}

// End logs the elapsed time of the span.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Debug("operation finished", slog.Duration("duration", time.Since(s.start)))
}
