package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"homestay/internal/app/apperr"
	"homestay/internal/app/commands"
)

// IdempotentCommand is implemented by commands whose effects must happen once per key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer the stored result is decoded into.
	ResultPrototype() any
}

// IdempotencyRecord is the stored outcome of the first execution of a key.
type IdempotencyRecord struct {
	Key        string    `bson:"_id"`
	Command    string    `bson:"command"`
	Payload    []byte    `bson:"payload,omitempty"`
	Error      string    `bson:"error,omitempty"`
	ErrorCode  string    `bson:"error_code,omitempty"`
	OccurredAt time.Time `bson:"occurred_at"`
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var (
	errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")
	// ErrIdempotencyKeyReuse is returned when a key is replayed for a different command.
	ErrIdempotencyKeyReuse = errors.New("middleware: idempotency key used by another command")
)

// Idempotency replays the stored outcome of a previously seen key instead of
// running the command again. Failures are stored with their error code so a
// replayed rejection keeps its status.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(rec, idCmd, codec)
			}

			result, err := next.Dispatch(ctx, cmd)
			record := IdempotencyRecord{
				Key:        key,
				Command:    cmd.Key(),
				OccurredAt: time.Now().UTC(),
			}
			if err != nil {
				if apperr.IsConflict(err) {
					// lost races are retryable with the same key
					return nil, err
				}
				record.Error = err.Error()
				record.ErrorCode = apperr.Code(err)
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(rec IdempotencyRecord, cmd IdempotentCommand, codec ResultCodec) (any, error) {
	if rec.Command != "" && rec.Command != cmd.Key() {
		return nil, apperr.Conflict(ErrIdempotencyKeyReuse)
	}
	if rec.Error != "" {
		return nil, apperr.Restore(rec.ErrorCode, rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
