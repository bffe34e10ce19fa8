package dispatch

import (
	"errors"
	"fmt"
)

// Delivery failures split into exactly two kinds. Transient failures
// (timeouts, rate limits, provider 5xx) are retried within the budget and
// may trigger channel fallback. Permanent failures (invalid address,
// unreachable number) are recorded immediately, never retried, and mark
// the channel unusable for the member.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient delivery error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent delivery error: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func Transientf(format string, args ...any) error {
	return &TransientError{Err: fmt.Errorf(format, args...)}
}

func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsTransient treats anything not explicitly permanent as transient, so an
// unclassified network error gets the retry budget rather than a silent
// write-off of the channel.
func IsTransient(err error) bool {
	return err != nil && !IsPermanent(err)
}
