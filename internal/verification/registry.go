package verification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"questserver/internal/interfaces"
	"questserver/internal/models"
)

const DefaultCheckTimeout = 10 * time.Second

type Registry struct {
	mu        sync.RWMutex
	verifiers map[string]Verifier

	repo         interfaces.TaskRepository
	checkTimeout time.Duration
}

func NewRegistry(repo interfaces.TaskRepository, checkTimeout time.Duration) *Registry {
	if checkTimeout <= 0 {
		checkTimeout = DefaultCheckTimeout
	}
	return &Registry{
		verifiers:    make(map[string]Verifier),
		repo:         repo,
		checkTimeout: checkTimeout,
	}
}

func (r *Registry) Register(verifyType string, verifier Verifier) error {
	if verifyType == "" {
		return errors.New("verification type is empty")
	}
	if verifier == nil {
		return fmt.Errorf("verifier for %q is nil", verifyType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.verifiers[verifyType]; ok {
		return fmt.Errorf("verification type %q already registered", verifyType)
	}
	r.verifiers[verifyType] = verifier
	return nil
}

func (r *Registry) MustRegister(verifyType string, verifier Verifier) {
	if err := r.Register(verifyType, verifier); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(verifyType string) (Verifier, error) {
	if verifyType == "" {
		return nil, ErrMissingVerificationType
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	verifier, ok := r.verifiers[verifyType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVerificationType, verifyType)
	}
	return verifier, nil
}

// Types lists the registered verification types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.verifiers))
	for t := range r.verifiers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Verify runs the task's strategy for address and records the completion when it is Verified.
// An existing record counts as success. No record is written for any other outcome.
func (r *Registry) Verify(ctx context.Context, task *models.Task, address string) (Decision, error) {
	verifier, err := r.Lookup(task.VerifyEndpointType)
	if err != nil {
		log.Println("verify: task", task.ID, "misconfigured:", err)
		return NotYetSatisfied, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, r.checkTimeout)
	decision, err := verifier.Check(checkCtx, task, address)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !IsExternalCheckFailed(err) {
			err = externalFailure("timeout", err)
		}
		return NotYetSatisfied, err
	}
	if decision != Verified {
		return NotYetSatisfied, nil
	}

	err = r.repo.RecordCompletion(ctx, task.ID, address)
	if err != nil && !errors.Is(err, interfaces.ErrAlreadyRecorded) {
		return NotYetSatisfied, err
	}
	return Verified, nil
}
