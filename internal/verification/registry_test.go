package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"questserver/internal/datastore/memstore"
	"questserver/internal/interfaces"
	"questserver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedVerifier(decision Decision, err error) Verifier {
	return VerifierFunc(func(ctx context.Context, task *models.Task, address string) (Decision, error) {
		return decision, err
	})
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		name        string
		verifyType  string
		verifier    Verifier
		preRegister []string
		wantErr     string
	}{
		{name: "empty type", verifier: RedirectVerifier{}, wantErr: "empty"},
		{name: "nil verifier", verifyType: "default", wantErr: "nil"},
		{name: "duplicate", verifyType: "default", verifier: RedirectVerifier{}, preRegister: []string{"default"}, wantErr: "already registered"},
		{name: "ok", verifyType: "default", verifier: RedirectVerifier{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(memstore.New(), time.Second)
			for _, pre := range tt.preRegister {
				require.NoError(t, r.Register(pre, RedirectVerifier{}))
			}

			err := r.Register(tt.verifyType, tt.verifier)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{tt.verifyType}, r.Types())
		})
	}
}

func TestRegistryVerify(t *testing.T) {
	checkErr := &ExternalCheckError{Reason: "score service status 502"}

	tests := []struct {
		name         string
		verifyType   string
		verifier     Verifier
		wantDecision Decision
		wantErr      error
		wantRecorded bool
	}{
		{name: "verified records completion", verifyType: "default", verifier: RedirectVerifier{}, wantDecision: Verified, wantRecorded: true},
		{name: "not yet satisfied", verifyType: "score_gt_50", verifier: fixedVerifier(NotYetSatisfied, nil), wantDecision: NotYetSatisfied},
		{name: "external failure", verifyType: "score_gt_50", verifier: fixedVerifier(Verified, checkErr), wantDecision: NotYetSatisfied, wantErr: checkErr},
		{name: "unknown type", verifyType: "quiz", wantDecision: NotYetSatisfied, wantErr: ErrUnsupportedVerificationType},
		{name: "missing type", verifyType: "", wantDecision: NotYetSatisfied, wantErr: ErrMissingVerificationType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memstore.New()
			task := models.Task{ID: 2, QuestID: 7, VerifyEndpointType: tt.verifyType}
			require.NoError(t, store.InsertTask(ctx, &task))

			r := NewRegistry(store, time.Second)
			if tt.verifier != nil {
				require.NoError(t, r.Register(tt.verifyType, tt.verifier))
			}

			decision, err := r.Verify(ctx, &task, "abc")
			assert.Equal(t, tt.wantDecision, decision)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			recorded, err := store.HasCompletion(ctx, task.ID, "abc")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecorded, recorded)
		})
	}
}

func TestRegistryVerifyIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	task := models.Task{ID: 1, QuestID: 7, VerifyEndpointType: TypeDefault}
	require.NoError(t, store.InsertTask(ctx, &task))

	r := NewRegistry(store, time.Second)
	require.NoError(t, r.Register(TypeDefault, RedirectVerifier{}))

	for i := 0; i < 2; i++ {
		decision, err := r.Verify(ctx, &task, "abc")
		require.NoError(t, err)
		assert.Equal(t, Verified, decision)
	}
	assert.Equal(t, 1, store.CompletionCount())
}

func TestRegistryVerifyTimeout(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	task := models.Task{ID: 1, QuestID: 7, VerifyEndpointType: "slow"}

	r := NewRegistry(store, 20*time.Millisecond)
	require.NoError(t, r.Register("slow", VerifierFunc(func(ctx context.Context, task *models.Task, address string) (Decision, error) {
		<-ctx.Done()
		return NotYetSatisfied, ctx.Err()
	})))

	decision, err := r.Verify(ctx, &task, "abc")
	assert.Equal(t, NotYetSatisfied, decision)
	assert.True(t, IsExternalCheckFailed(err))
	assert.Equal(t, 0, store.CompletionCount())
}

func TestRegistryVerifyStoreFailure(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	task := models.Task{ID: 1, QuestID: 7, VerifyEndpointType: TypeDefault}
	store.Fail(errors.New("connection refused"))

	r := NewRegistry(store, time.Second)
	require.NoError(t, r.Register(TypeDefault, RedirectVerifier{}))

	decision, err := r.Verify(ctx, &task, "abc")
	assert.Equal(t, NotYetSatisfied, decision)
	assert.ErrorIs(t, err, interfaces.ErrStoreUnavailable)
}

func TestRegisterDefaults(t *testing.T) {
	r := NewRegistry(memstore.New(), time.Second)
	require.NoError(t, RegisterDefaults(r, Options{}))
	assert.Equal(t, []string{TypeDefault}, r.Types())

	r = NewRegistry(memstore.New(), time.Second)
	require.NoError(t, RegisterDefaults(r, Options{
		HTTPClient:    NewHTTPClient(time.Second, 0),
		ScoreBaseURL:  "http://scores.local",
		NamingBaseURL: "http://naming.local",
		TonSource:     &fakeBalanceSource{},
	}))
	assert.Equal(t, []string{TypeDefault, TypeHasDomain, TypeHasPlayed, TypeScoreGt100, TypeScoreGt50, TypeTonWalletActive}, r.Types())
}
