package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error. The kind decides the HTTP status and
// travels across service boundaries in the "code" field of the error envelope.
type Kind string

const (
	KindNotFound            Kind = "NOT_FOUND"
	KindInsufficientStock   Kind = "INSUFFICIENT_STOCK"
	KindInvalidInput        Kind = "INVALID_INPUT"
	KindInvalidCode         Kind = "INVALID_CODE"
	KindCouponDisabled      Kind = "COUPON_DISABLED"
	KindMinimumNotMet       Kind = "MINIMUM_NOT_MET"
	KindEmptyCart           Kind = "EMPTY_CART"
	KindConflict            Kind = "CONFLICT"
	KindOrderCreationFailed Kind = "ORDER_CREATION_FAILED"
	KindUpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	KindUnauthorized        Kind = "UNAUTHORIZED"
	KindRateLimited         Kind = "RATE_LIMITED"
	KindInternal            Kind = "INTERNAL"
)

var statusByKind = map[Kind]int{
	KindNotFound:            http.StatusNotFound,
	KindInsufficientStock:   http.StatusConflict,
	KindInvalidInput:        http.StatusBadRequest,
	KindInvalidCode:         http.StatusBadRequest,
	KindCouponDisabled:      http.StatusBadRequest,
	KindMinimumNotMet:       http.StatusBadRequest,
	KindEmptyCart:           http.StatusBadRequest,
	KindConflict:            http.StatusConflict,
	KindOrderCreationFailed: http.StatusConflict,
	KindUpstreamUnavailable: http.StatusServiceUnavailable,
	KindUnauthorized:        http.StatusUnauthorized,
	KindRateLimited:         http.StatusTooManyRequests,
	KindInternal:            http.StatusInternalServerError,
}

// Error represents an application error
type Error struct {
	Kind    Kind   `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// StatusCode returns the HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	if code, ok := statusByKind[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// New creates a new Error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error carrying err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinel errors for errors.Is checks. Match is by kind only.
var (
	ErrNotFound            = New(KindNotFound, "Not found")
	ErrInsufficientStock   = New(KindInsufficientStock, "Insufficient stock")
	ErrInvalidInput        = New(KindInvalidInput, "Invalid input")
	ErrInvalidCode         = New(KindInvalidCode, "Invalid coupon code")
	ErrCouponDisabled      = New(KindCouponDisabled, "Coupon is disabled")
	ErrMinimumNotMet       = New(KindMinimumNotMet, "Minimum order value not met")
	ErrEmptyCart           = New(KindEmptyCart, "Cart is empty")
	ErrConflict            = New(KindConflict, "Conflict")
	ErrOrderCreationFailed = New(KindOrderCreationFailed, "Order creation failed")
	ErrUpstreamUnavailable = New(KindUpstreamUnavailable, "Upstream service unavailable")
	ErrUnauthorized        = New(KindUnauthorized, "Unauthorized")
	ErrRateLimited         = New(KindRateLimited, "Rate limit exceeded. Please try again later.")
	ErrInternal            = New(KindInternal, "Internal server error")
)

// As returns err as an *Error, converting untyped errors into KindInternal.
func As(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(KindInternal, ErrInternal.Message, err)
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}

// Respond writes err using the shared {"error", "code"} envelope.
func Respond(c *gin.Context, err error) {
	appErr := As(err)
	c.JSON(appErr.StatusCode(), gin.H{"error": appErr.Message, "code": appErr.Kind})
}

// BadRequest writes an INVALID_INPUT response for a request that failed binding.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"code":    KindInvalidInput,
		"details": err.Error(),
	})
}

// ErrorMiddleware renders the last error attached with c.Error when no
// response has been written yet.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
			c.Abort()
		}
	}
}
