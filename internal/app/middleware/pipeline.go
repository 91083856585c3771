package middleware

import (
	"context"

	"stayhub/internal/app/commands"
	"stayhub/internal/app/queries"
)

// CommandMiddleware decorates a command bus with cross-cutting behavior.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates a query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] is the outermost layer: it sees a
// dispatch first and its result last.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	out := base
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// ChainQueries wraps base in the same outermost-first order as ChainCommands.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	out := base
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// dispatchFunc adapts a function to the command bus interface, so a
// middleware is a closure rather than a struct per wrapper.
type dispatchFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f dispatchFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}
