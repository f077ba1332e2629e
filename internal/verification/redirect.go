package verification

import (
	"context"

	"questserver/internal/models"
)

// RedirectVerifier accepts the claimant's return from the task's verify_redirect as proof.
type RedirectVerifier struct{}

func (RedirectVerifier) Check(ctx context.Context, task *models.Task, address string) (Decision, error) {
	return Verified, nil
}
