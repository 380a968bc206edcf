package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict") // под optimistic lock / version mismatch

	// ErrQuotaExceeded — провайдер уперся в rate limit. Ретраить можно,
	// но дальнейший dispatch в рамках текущего прохода надо остановить.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
)

// TransientError marks a failure that is expected to succeed on a later
// scheduler pass (network failure, timeout, provider 5xx). The stage runner
// answers it with a retry-count increment, not a terminal Failed.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError for the given operation.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// IsTransient classifies an error for retry purposes. Deadline expiry and
// quota pressure count as transient (§ retry semantics), cancellation does
// not — a cancelled run is not a failed item.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrQuotaExceeded)
}

// MalformedResponseError reports generative output that could not be decoded
// into the operation's expected shape. Most operations swallow it via a
// fallback value; quiz generation propagates it.
type MalformedResponseError struct {
	Op  string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Op, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func Malformed(op string, err error) error {
	return &MalformedResponseError{Op: op, Err: err}
}

func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}
