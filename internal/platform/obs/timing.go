package obs

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate log lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Logger returns an entry tagged with the request id from ctx, if any.
func Logger(ctx context.Context) *logrus.Entry {
	reqID, _ := ctx.Value(RequestIDKey).(string)
	return logrus.WithField("req_id", reqID)
}

// Time logs the duration of an operation. Use as
//
//	defer obs.Time(ctx, "op")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	log := Logger(ctx)

	return func(errp *error) {
		entry := log.WithFields(logrus.Fields{
			"op":     name,
			"dur_ms": time.Since(start).Milliseconds(),
		})

		if errp != nil && *errp != nil {
			entry.WithError(*errp).Warn("op failed")
			return
		}
		entry.Debug("op done")
	}
}
