package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// contextInjector is implemented by units that carry driver state (a Mongo
// session) which repositories read from the context.
type contextInjector interface {
	InjectContext(context.Context) context.Context
}

// Attach returns ctx carrying unit and any driver state the unit injects.
func Attach(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(contextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// BeginReadOnly reuses the unit already in ctx or starts a read-only one.
// The returned release func is nil when an outer unit is reused.
func BeginReadOnly(ctx context.Context, factory UoWFactory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := Attach(ctx, unit)
	release := func() {
		_ = unit.Rollback(execCtx)
	}
	return unit, execCtx, release, nil
}
