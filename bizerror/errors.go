package bizerror

import (
	"errors"
	"net/http"
)

// Kind is the machine readable discriminator carried by CommandResult,
// so callers can tell business rejections from infrastructure faults.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindAlreadyExists         Kind = "ALREADY_EXISTS"
	KindInvalidTransition     Kind = "INVALID_TRANSITION"
	KindInvalidState          Kind = "INVALID_STATE"
	KindMissingReason         Kind = "MISSING_REASON"
	KindInsufficientMaterials Kind = "INSUFFICIENT_MATERIALS"
	KindStaleTransition       Kind = "STALE_TRANSITION"
	KindBadRequest            Kind = "BAD_REQUEST"
	KindInfrastructure        Kind = "INFRASTRUCTURE"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")

	ErrNotFound              = errors.New("record not found")
	ErrAlreadyExists         = errors.New("workflow already exists")
	ErrMissingReason         = errors.New("a non-empty reason is required")
	ErrInsufficientMaterials = errors.New("insufficient materials to build")
	ErrStaleTransition       = errors.New("workflow was modified concurrently")
)

type BizError interface {
	Respond() *BizErrorDetail
}

type BizErrorDetail struct {
	Status  int
	Code    string
	Message string

	Data  interface{}
	Cause error
}

type ErrBadParam struct {
	Cause error
}

func (e *ErrBadParam) Unwrap() error {
	return e.Cause
}
func (e *ErrBadParam) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "common.bad_param"
}
func (e *ErrBadParam) Respond() *BizErrorDetail {
	message := "common.bad_param"
	if e.Cause != nil {
		message = e.Cause.Error()
	}
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "common.bad_param", Message: message}
}

// ErrInvalidTransition the requested target status is not reachable
// from the current one per the transition rule table.
type ErrInvalidTransition struct {
	From string
	To   string
}

func (e *ErrInvalidTransition) Error() string {
	return "transition from " + e.From + " to " + e.To + " is not allowed"
}
func (e *ErrInvalidTransition) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusBadRequest, Code: "workflow.invalid_transition", Message: e.Error()}
}

// ErrInvalidState an operation specific precondition on the current status
// is not met, e.g. starting a production which is not in PLANNED.
type ErrInvalidState struct {
	Operation string
	Expected  string
	Actual    string
}

func (e *ErrInvalidState) Error() string {
	return e.Operation + " requires status " + e.Expected + ", but current status is " + e.Actual
}
func (e *ErrInvalidState) Respond() *BizErrorDetail {
	return &BizErrorDetail{Status: http.StatusConflict, Code: "workflow.invalid_state", Message: e.Error()}
}

// KindOf classifies an error into the CommandResult error kind taxonomy.
// Unrecognized errors are treated as infrastructure faults.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrMissingReason):
		return KindMissingReason
	case errors.Is(err, ErrInsufficientMaterials):
		return KindInsufficientMaterials
	case errors.Is(err, ErrStaleTransition):
		return KindStaleTransition
	}

	var invalidTransition *ErrInvalidTransition
	if errors.As(err, &invalidTransition) {
		return KindInvalidTransition
	}
	var invalidState *ErrInvalidState
	if errors.As(err, &invalidState) {
		return KindInvalidState
	}
	var badParam *ErrBadParam
	if errors.As(err, &badParam) {
		return KindBadRequest
	}
	return KindInfrastructure
}
