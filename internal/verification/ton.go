package verification

import (
	"context"

	"questserver/internal/models"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/ton"
)

// BalanceSource reports the balance in nanotons of a TON account and whether the account exists.
type BalanceSource interface {
	Balance(ctx context.Context, account ton.AccountID) (uint64, bool, error)
}

// TonWalletVerifier is satisfied by a deployed TON account holding a positive balance.
type TonWalletVerifier struct {
	Source BalanceSource
}

func (v *TonWalletVerifier) Check(ctx context.Context, task *models.Task, addr string) (Decision, error) {
	parsed, err := tongo.ParseAddress(addr)
	if err != nil {
		return NotYetSatisfied, ErrInvalidAddress
	}

	balance, exists, err := v.Source.Balance(ctx, parsed.ID)
	if err != nil {
		return NotYetSatisfied, externalFailure("liteserver account state", err)
	}
	if !exists || balance == 0 {
		return NotYetSatisfied, nil
	}
	return Verified, nil
}

// LiteapiBalanceSource reads account state straight from TON liteservers.
type LiteapiBalanceSource struct {
	Client *liteapi.Client
}

func (s *LiteapiBalanceSource) Balance(ctx context.Context, account ton.AccountID) (uint64, bool, error) {
	state, err := s.Client.GetAccountState(ctx, account)
	if err != nil {
		return 0, false, err
	}
	if state.Account.SumType != "Account" {
		return 0, false, nil
	}
	return uint64(state.Account.Account.Storage.Balance.Grams), true, nil
}
