package middleware

import (
	"context"

	"homestay/internal/app/commands"
	"homestay/internal/app/queries"
)

// CommandMiddleware wraps a command bus with extra behavior.
type CommandMiddleware func(next commands.Bus) commands.Bus

type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base with mws, outermost first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		wrapped = mws[i](wrapped)
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, query queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

// Message is what both buses route: commands and queries share Key.
type Message interface {
	Key() string
}

// around builds the command and query variants of one interceptor.
func around(fn func(ctx context.Context, msg Message, next func(context.Context) (any, error)) (any, error)) (CommandMiddleware, QueryMiddleware) {
	cmd := func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, c commands.Command) (any, error) {
			return fn(ctx, c, func(ctx context.Context) (any, error) { return next.Dispatch(ctx, c) })
		})
	}
	query := func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			return fn(ctx, q, func(ctx context.Context) (any, error) { return next.Ask(ctx, q) })
		})
	}
	return cmd, query
}
