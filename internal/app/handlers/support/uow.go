package support

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"homestay/internal/app/outbox"
	"homestay/internal/app/uow"
)

var ErrUnitOfWorkRequired = errors.New("handlers: unit of work required")

// InUnit runs fn with the unit already carried by ctx, or with a new unit
// that is committed when fn succeeds.
func InUnit(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	if unit, ok := uow.FromContext(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrUnitOfWorkRequired
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	execCtx := uow.Attach(ctx, unit)
	if err := fn(execCtx, unit); err != nil {
		_ = unit.Rollback(execCtx)
		return err
	}
	return unit.Commit(execCtx)
}

// ReadOnly runs fn inside a read-only unit.
func ReadOnly(ctx context.Context, factory uow.UoWFactory, fn func(ctx context.Context, unit uow.UnitOfWork) error) error {
	unit, execCtx, release, err := uow.BeginReadOnly(ctx, factory)
	if err != nil {
		return err
	}
	if release != nil {
		defer release()
	}
	return fn(execCtx, unit)
}

// Clock returns now() in UTC, defaulting to the wall clock.
func Clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}

// Events bundles what handlers need to publish domain events.
type Events struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
}

// Publish drains the pending events of the given aggregates into the outbox.
func (e Events) Publish(ctx context.Context, aggregates ...outbox.Recorder) error {
	encoder := e.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.Drain(ctx, e.Outbox, encoder, aggregates...)
}

// Logger falls back to the default logger.
func Logger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}
