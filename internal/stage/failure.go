package stage

import (
	"errors"
	"fmt"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/services"
)

// Failure is a declared, expected stage failure such as a validation problem.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Failure) Unwrap() error { return f.Err }

// Failf builds a logical failure with a formatted message.
func Failf(format string, args ...any) error {
	return &Failure{Message: fmt.Sprintf(format, args...)}
}

// Fail wraps err as a logical failure with message.
func Fail(message string, err error) error {
	return &Failure{Message: message, Err: err}
}

// IsLogical reports whether err is an expected stage failure.
func IsLogical(err error) bool {
	if err == nil {
		return false
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return true
	}
	return errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrMalformedPackage)
}

// Message returns the user-facing message for a logical failure.
func Message(err error) string {
	var failure *Failure
	if errors.As(err, &failure) && failure.Err == nil {
		return failure.Message
	}
	return err.Error()
}
