// Package apperr classifies application errors for transports.
//
// Domain packages return plain sentinel errors. Classify marks them with one
// of the class sentinels below using cockroachdb/errors so that transports can
// pick a status code without importing every domain package.
package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"

	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/domain/shared/money"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrRejected   = errors.New("rejected")
	ErrForbidden  = errors.New("forbidden")
	ErrSystem     = errors.New("system error")
)

const (
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_ERROR"
	CodeConflict   = "CONFLICT"
	CodeRejected   = "REJECTED"
	CodeForbidden  = "FORBIDDEN"
	CodeSystem     = "SYSTEM_ERROR"
)

type class struct {
	sentinel error
	code     string
	status   int
}

var classes = []class{
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrValidation, CodeValidation, http.StatusBadRequest},
	{ErrConflict, CodeConflict, http.StatusConflict},
	{ErrRejected, CodeRejected, http.StatusUnprocessableEntity},
	{ErrForbidden, CodeForbidden, http.StatusForbidden},
	{ErrSystem, CodeSystem, http.StatusInternalServerError},
}

var domainClasses = []struct {
	err   error
	class error
}{
	{domainrooms.ErrRoomNotFound, ErrNotFound},
	{domaincoupons.ErrNoSuchCoupon, ErrNotFound},
	{domainbooking.ErrBookingNotFound, ErrNotFound},
	{domainlocations.ErrLocationNotFound, ErrNotFound},
	{hostsettings.ErrSettingsNotFound, ErrNotFound},
	{domainpricing.ErrInvalidDateRange, ErrValidation},
	{domainpricing.ErrInvalidGuests, ErrValidation},
	{domainpricing.ErrInvalidAddOn, ErrValidation},
	{domainpricing.ErrInvalidTaxRate, ErrValidation},
	{domainrooms.ErrUnsupportedGranularity, ErrValidation},
	{domainrooms.ErrNameRequired, ErrValidation},
	{domainrooms.ErrCapacity, ErrValidation},
	{domainrooms.ErrNegativeRate, ErrValidation},
	{domainrooms.ErrNoRatesOffered, ErrValidation},
	{domainrooms.ErrHostRequired, ErrValidation},
	{domainrooms.ErrRoomIDRequired, ErrValidation},
	{domainrooms.ErrInvalidCurrency, ErrValidation},
	{domaincoupons.ErrCodeRequired, ErrValidation},
	{domaincoupons.ErrInvalidType, ErrValidation},
	{domaincoupons.ErrInvalidValue, ErrValidation},
	{domaincoupons.ErrUsageLimit, ErrValidation},
	{domaincoupons.ErrExpiryRequired, ErrValidation},
	{domaincoupons.ErrInvalidStatus, ErrValidation},
	{domaincoupons.ErrCurrencyRequired, ErrValidation},
	{domainbooking.ErrContactRequired, ErrValidation},
	{domainbooking.ErrBookingIDMissing, ErrValidation},
	{daterange.ErrInvalidRange, ErrValidation},
	{money.ErrInvalidCurrency, ErrValidation},
	{money.ErrAmountOverflow, ErrValidation},
	{domainlocations.ErrLocationIDRequired, ErrValidation},
	{domainlocations.ErrHostRequired, ErrValidation},
	{domainlocations.ErrNameRequired, ErrValidation},
	{domainlocations.ErrAddressRequired, ErrValidation},
	{domainlocations.ErrCityRequired, ErrValidation},
	{domainlocations.ErrProvinceRequired, ErrValidation},
	{hostsettings.ErrHostRequired, ErrValidation},
	{hostsettings.ErrInvalidPolicy, ErrValidation},
	{hostsettings.ErrInvalidAdvance, ErrValidation},
	{hostsettings.ErrInvalidStay, ErrValidation},
	{hostsettings.ErrInvalidRefund, ErrValidation},
	{hostsettings.ErrInvalidTaxRate, ErrValidation},
	{domainpricing.ErrCapacityExceeded, ErrRejected},
	{domainpricing.ErrRoomMismatch, ErrRejected},
	{domainrooms.ErrInvalidGranularity, ErrRejected},
	{domaincoupons.ErrCouponNotFound, ErrRejected},
	{domaincoupons.ErrCouponExpired, ErrRejected},
	{domaincoupons.ErrCouponExhausted, ErrRejected},
	{domaincoupons.ErrCouponInactive, ErrRejected},
	{domaincoupons.ErrCurrency, ErrRejected},
	{domainbooking.ErrRoomUnavailable, ErrRejected},
	{domainbooking.ErrQuoteRequired, ErrRejected},
	{money.ErrCurrencyMismatch, ErrRejected},
	{hostsettings.ErrStayTooShort, ErrRejected},
	{hostsettings.ErrStayTooLong, ErrRejected},
	{hostsettings.ErrTooFarAhead, ErrRejected},
	{uow.ErrConcurrentUpdate, ErrConflict},
	{domaincoupons.ErrDuplicateCode, ErrConflict},
	{domaincoupons.ErrUsageBelowCurrent, ErrConflict},
	{domainbooking.ErrInvalidState, ErrConflict},
	{domainlocations.ErrLocationInUse, ErrConflict},
	{domainrooms.ErrForeignRoom, ErrForbidden},
	{domaincoupons.ErrForeignCoupon, ErrForbidden},
	{domainbooking.ErrForeignBooking, ErrForbidden},
	{domainlocations.ErrForeignLocation, ErrForbidden},
}

// ruleCodes name booking rule rejections that clients tell apart.
var ruleCodes = []struct {
	err  error
	code string
}{
	{hostsettings.ErrStayTooShort, "STAY_TOO_SHORT"},
	{hostsettings.ErrStayTooLong, "STAY_TOO_LONG"},
	{hostsettings.ErrTooFarAhead, "BOOKING_TOO_FAR_AHEAD"},
}

// Classify marks err with its class. Already classified errors and nil are returned as is.
func Classify(err error) error {
	if err == nil || classOf(err) != nil {
		return err
	}
	for _, dc := range domainClasses {
		if errors.Is(err, dc.err) {
			return errors.Mark(err, dc.class)
		}
	}
	return err
}

// Validation wraps a message as a validation failure.
func Validation(msg string) error {
	return errors.Mark(errors.New(msg), ErrValidation)
}

// Validationf formats a validation failure.
func Validationf(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// NotFound wraps err as a missing resource.
func NotFound(err error) error {
	return errors.Mark(err, ErrNotFound)
}

// Conflict marks err as a conflict with the current state.
func Conflict(err error) error {
	return errors.Mark(err, ErrConflict)
}

// WithHint attaches a user facing hint.
func WithHint(err error, hint string) error {
	return errors.WithHint(err, hint)
}

// Hint returns the first user facing hint attached to err.
func Hint(err error) string {
	hints := errors.GetAllHints(err)
	if len(hints) == 0 {
		return ""
	}
	return hints[0]
}

// HTTPStatus maps err to a status code, 500 for unclassified errors.
func HTTPStatus(err error) int {
	if c := classOf(Classify(err)); c != nil {
		return c.status
	}
	return http.StatusInternalServerError
}

// Code is the machine readable error code sent to clients. Quote failures use
// their pricing kind; everything else uses the class code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	if kind := domainpricing.KindOf(err); kind != "" {
		return string(kind)
	}
	for _, rc := range ruleCodes {
		if errors.Is(err, rc.err) {
			return rc.code
		}
	}
	if c := classOf(Classify(err)); c != nil {
		return c.code
	}
	return CodeSystem
}

// Restore rebuilds a classified error from a code and message previously
// produced by Code and Error, e.g. when replaying a stored idempotent result.
func Restore(code, msg string) error {
	if sentinel := domainpricing.ErrorFor(domainpricing.Kind(code)); sentinel != nil {
		return Classify(&restored{msg: msg, cause: sentinel})
	}
	for _, rc := range ruleCodes {
		if rc.code == code {
			return Classify(&restored{msg: msg, cause: rc.err})
		}
	}
	for _, c := range classes {
		if c.code == code {
			return errors.Mark(errors.New(msg), c.sentinel)
		}
	}
	return errors.New(msg)
}

// restored keeps the original message while exposing the sentinel to errors.Is.
type restored struct {
	msg   string
	cause error
}

func (r *restored) Error() string { return r.msg }
func (r *restored) Unwrap() error { return r.cause }

// IsNotFound reports whether err is classified as a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(Classify(err), ErrNotFound)
}

// IsConflict reports whether err is classified as a conflict.
func IsConflict(err error) bool {
	return errors.Is(Classify(err), ErrConflict)
}

func classOf(err error) *class {
	for i := range classes {
		if errors.Is(err, classes[i].sentinel) {
			return &classes[i]
		}
	}
	return nil
}
