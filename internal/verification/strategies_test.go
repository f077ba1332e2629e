package verification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"questserver/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/ton"
)

const tonAddr = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"

func scoreServer(t *testing.T, scores map[string]int64, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/fetch_user_score" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if status != 0 {
			w.WriteHeader(status)
			return
		}

		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		score, ok := scores[req.Addr]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "no score"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"data": score})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestScoreVerifier(t *testing.T) {
	srv, _ := scoreServer(t, map[string]int64{"0xabc": 40, "0xdef": 120}, 0)
	client := NewHTTPClient(time.Second, 0)
	task := &models.Task{ID: 2}

	tests := []struct {
		name     string
		verifier *ScoreVerifier
		addr     string
		want     Decision
		wantErr  error
	}{
		{name: "below threshold", verifier: &ScoreVerifier{Threshold: 50}, addr: "0xabc", want: NotYetSatisfied},
		{name: "above threshold", verifier: &ScoreVerifier{Threshold: 50}, addr: "0xdef", want: Verified},
		{name: "threshold is strict", verifier: &ScoreVerifier{Threshold: 120}, addr: "0xdef", want: NotYetSatisfied},
		{name: "has played", verifier: &ScoreVerifier{RequirePlay: true}, addr: "0xabc", want: Verified},
		{name: "never played", verifier: &ScoreVerifier{RequirePlay: true}, addr: "0x123", want: NotYetSatisfied},
		{name: "not a hex address", verifier: &ScoreVerifier{Threshold: 50}, addr: "abc", want: NotYetSatisfied, wantErr: ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.verifier.Client = client
			tt.verifier.BaseURL = srv.URL
			got, err := tt.verifier.Check(context.Background(), task, tt.addr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreVerifierUpstreamFailure(t *testing.T) {
	srv, calls := scoreServer(t, nil, http.StatusBadGateway)
	v := &ScoreVerifier{Client: NewHTTPClient(time.Second, 1), BaseURL: srv.URL, Threshold: 50}

	got, err := v.Check(context.Background(), &models.Task{ID: 2}, "0xabc")
	assert.Equal(t, NotYetSatisfied, got)
	assert.True(t, IsExternalCheckFailed(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "one retry on 5xx")
}

func TestScoreVerifierUnreachable(t *testing.T) {
	srv, _ := scoreServer(t, nil, 0)
	srv.Close()
	v := &ScoreVerifier{Client: NewHTTPClient(time.Second, 0), BaseURL: srv.URL, Threshold: 50}

	_, err := v.Check(context.Background(), &models.Task{ID: 2}, "0xabc")
	assert.True(t, IsExternalCheckFailed(err))
}

func TestDomainVerifier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("addr") {
		case "0xabc":
			_ = json.NewEncoder(w).Encode(map[string]string{"domain": "fighter.stark"})
		case "0xdead":
			w.WriteHeader(http.StatusInternalServerError)
		case "0xempty":
			_ = json.NewEncoder(w).Encode(map[string]string{"domain": ""})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	v := &DomainVerifier{Client: NewHTTPClient(time.Second, 0), BaseURL: srv.URL}
	ctx := context.Background()
	task := &models.Task{ID: 3}

	got, err := v.Check(ctx, task, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, Verified, got)

	got, err = v.Check(ctx, task, "0x123")
	require.NoError(t, err)
	assert.Equal(t, NotYetSatisfied, got)

	got, err = v.Check(ctx, task, "0xempty")
	assert.ErrorIs(t, err, ErrInvalidAddress, "0xempty is not hex")
	assert.Equal(t, NotYetSatisfied, got)

	_, err = v.Check(ctx, task, "0xdead")
	assert.True(t, IsExternalCheckFailed(err))
}

type fakeBalanceSource struct {
	balances map[ton.AccountID]uint64
	err      error
}

func (f *fakeBalanceSource) Balance(ctx context.Context, account ton.AccountID) (uint64, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	balance, ok := f.balances[account]
	return balance, ok, nil
}

func TestTonWalletVerifier(t *testing.T) {
	parsed, err := tongo.ParseAddress(tonAddr)
	require.NoError(t, err)
	account := parsed.ID
	ctx := context.Background()
	task := &models.Task{ID: 4}

	v := &TonWalletVerifier{Source: &fakeBalanceSource{balances: map[ton.AccountID]uint64{account: 1_000_000}}}
	got, err := v.Check(ctx, task, tonAddr)
	require.NoError(t, err)
	assert.Equal(t, Verified, got)

	v = &TonWalletVerifier{Source: &fakeBalanceSource{balances: map[ton.AccountID]uint64{account: 0}}}
	got, err = v.Check(ctx, task, tonAddr)
	require.NoError(t, err)
	assert.Equal(t, NotYetSatisfied, got)

	v = &TonWalletVerifier{Source: &fakeBalanceSource{}}
	got, err = v.Check(ctx, task, tonAddr)
	require.NoError(t, err)
	assert.Equal(t, NotYetSatisfied, got)

	_, err = v.Check(ctx, task, "0xabc")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	v = &TonWalletVerifier{Source: &fakeBalanceSource{err: errors.New("liteserver timeout")}}
	_, err = v.Check(ctx, task, tonAddr)
	assert.True(t, IsExternalCheckFailed(err))
}
