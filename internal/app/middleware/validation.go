package middleware

import (
	"context"
	"strings"

	"homestay/internal/app/apperr"
	"homestay/internal/app/commands"
	"homestay/internal/app/queries"
)

type Validator interface {
	Validate(ctx context.Context, message any) error
}

func Validation(v Validator) CommandMiddleware {
	cmd, _ := validationPair(v)
	return cmd
}

func QueryValidation(v Validator) QueryMiddleware {
	_, q := validationPair(v)
	return q
}

func validationPair(v Validator) (CommandMiddleware, QueryMiddleware) {
	if v == nil {
		panic("middleware: validator required")
	}
	return around(func(ctx context.Context, msg Message, next func(context.Context) (any, error)) (any, error) {
		if err := v.Validate(ctx, msg); err != nil {
			return nil, err
		}
		return next(ctx)
	})
}

// HostScoped is implemented by messages that act on behalf of a host.
type HostScoped interface {
	HostScope() string
}

// HostAuthorization rejects host scoped messages without a host identity.
// Ownership of the addressed aggregate is checked by the handlers.
func HostAuthorization() (CommandMiddleware, QueryMiddleware) {
	return around(func(ctx context.Context, msg Message, next func(context.Context) (any, error)) (any, error) {
		if scoped, ok := msg.(HostScoped); ok && strings.TrimSpace(scoped.HostScope()) == "" {
			return nil, apperr.Validation("host id is required")
		}
		return next(ctx)
	})
}

var (
	_ commands.Bus = commandFunc(nil)
	_ queries.Bus  = queryFunc(nil)
)
