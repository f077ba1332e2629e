// Package verification decides whether an address satisfied a task. Strategies are registered
// under the task's verify_endpoint_type and looked up by exact match.
package verification

import (
	"context"
	"errors"
	"fmt"

	"questserver/internal/models"
)

type Decision int

const (
	NotYetSatisfied Decision = iota
	Verified
)

func (d Decision) String() string {
	switch d {
	case Verified:
		return "verified"
	case NotYetSatisfied:
		return "not_yet_satisfied"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

var (
	ErrMissingVerificationType     = errors.New("task has no verification type")
	ErrUnsupportedVerificationType = errors.New("unsupported verification type")
	ErrInvalidAddress              = errors.New("address format not accepted by this task")
)

// ExternalCheckError means the third-party check could not give an answer. It is retryable and
// never results in a completion record.
type ExternalCheckError struct {
	Reason string
	Err    error
}

func (e *ExternalCheckError) Error() string {
	if e.Err == nil {
		return "external check failed: " + e.Reason
	}
	return fmt.Sprintf("external check failed: %s: %v", e.Reason, e.Err)
}

func (e *ExternalCheckError) Unwrap() error {
	return e.Err
}

func externalFailure(reason string, err error) error {
	return &ExternalCheckError{Reason: reason, Err: err}
}

// IsExternalCheckFailed reports whether err carries an ExternalCheckError.
func IsExternalCheckFailed(err error) bool {
	var target *ExternalCheckError
	return errors.As(err, &target)
}

type Verifier interface {
	Check(ctx context.Context, task *models.Task, address string) (Decision, error)
}

type VerifierFunc func(ctx context.Context, task *models.Task, address string) (Decision, error)

func (f VerifierFunc) Check(ctx context.Context, task *models.Task, address string) (Decision, error) {
	return f(ctx, task, address)
}
