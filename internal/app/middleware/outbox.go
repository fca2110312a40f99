package middleware

import (
	"context"

	"homestay/internal/app/commands"
	"homestay/internal/app/outbox"
)

// OutboxFlush releases staged event records once the command succeeded and
// drops them when it failed.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				if d, ok := box.(outbox.Discarder); ok {
					_ = d.Discard(ctx)
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
