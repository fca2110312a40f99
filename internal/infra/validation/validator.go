package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"homestay/internal/app/apperr"
	"homestay/internal/app/middleware"
)

// Validator checks the `validate` tags of bus messages.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(ctx context.Context, message any) error {
	if !isStruct(message) {
		return nil
	}
	err := v.validate.StructCtx(ctx, message)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, describe(fe))
	}
	return apperr.WithHint(
		apperr.Validationf("invalid %s: %s", messageName(message), strings.Join(fields, "; ")),
		"Request validation failed",
	)
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	if fe.Param() != "" {
		return fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s must satisfy %s", field, fe.Tag())
}

func messageName(message any) string {
	if m, ok := message.(interface{ Key() string }); ok {
		return m.Key()
	}
	return reflect.TypeOf(message).Name()
}

func isStruct(message any) bool {
	if message == nil {
		return false
	}
	t := reflect.TypeOf(message)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

var _ middleware.Validator = (*Validator)(nil)
