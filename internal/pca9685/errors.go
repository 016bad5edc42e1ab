package pca9685

import (
	"errors"
	"fmt"
)

// ErrorCode classifies driver failures.
type ErrorCode string

const (
	ErrCodeIO              ErrorCode = "IO"
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is returned by every Device operation that fails. Out-of-range duty
// and frequency values are not errors; they are dropped without a write.
type Error struct {
	Code  ErrorCode
	Op    string
	Reg   byte
	Cause error
}

func (e *Error) Error() string {
	if e.Code == ErrCodeIO {
		return fmt.Sprintf("pca9685: %s: reg 0x%02X: %v", e.Op, e.Reg, e.Cause)
	}
	return fmt.Sprintf("pca9685: %s: %v", e.Op, e.Cause)
}

// Unwrap returns the transport error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HasCode checks if the error matches a specific code.
func (e *Error) HasCode(code ErrorCode) bool {
	return e.Code == code
}

// IsIOError reports whether err is a bus failure from this driver.
func IsIOError(err error) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.HasCode(ErrCodeIO)
}
