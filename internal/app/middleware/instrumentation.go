package middleware

import (
	"context"
	"log/slog"
	"time"

	"homestay/internal/app/apperr"
)

// Observer receives the outcome of every routed message.
type Observer interface {
	ObserveMessage(kind, key, outcome string, elapsed time.Duration)
}

// Instrumentation logs failed messages and reports every outcome to obs.
// Either argument may be nil.
func Instrumentation(logger *slog.Logger, obs Observer) (CommandMiddleware, QueryMiddleware) {
	wrap := func(kind string) func(ctx context.Context, msg Message, next func(context.Context) (any, error)) (any, error) {
		return func(ctx context.Context, msg Message, next func(context.Context) (any, error)) (any, error) {
			start := time.Now()
			res, err := next(ctx)
			elapsed := time.Since(start)
			outcome := "ok"
			if err != nil {
				outcome = apperr.Code(err)
				if logger != nil {
					level := slog.LevelInfo
					if apperr.HTTPStatus(err) >= 500 {
						level = slog.LevelError
					}
					logger.Log(ctx, level, kind+" failed", "key", msg.Key(), "code", outcome, "err", err, "elapsed", elapsed)
				}
			}
			if obs != nil {
				obs.ObserveMessage(kind, msg.Key(), outcome, elapsed)
			}
			return res, err
		}
	}
	cmd, _ := around(wrap("command"))
	_, query := around(wrap("query"))
	return cmd, query
}
