package usecase

import (
	"context"

	"github.com/iho/ilpnode/internal/domain"
)

// BalanceUseCase is the balance ledger: the single serialization point for
// concurrent packet-driven credits and debits on one account.
type BalanceUseCase struct {
	accounts AccountRepository
	balances BalanceStore
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(accounts AccountRepository, balances BalanceStore) *BalanceUseCase {
	return &BalanceUseCase{
		accounts: accounts,
		balances: balances,
	}
}

// AdjustBalance atomically adds delta (in the account's asset scale) to the
// balance. The store enforces the min_balance floor and emits the settlement
// trigger in the same atomic step, so callers never read-modify-write.
func (uc *BalanceUseCase) AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return uc.balances.AdjustBalance(ctx, account, delta)
}

// AdjustForAccount is AdjustBalance for callers that already hold the
// account record, saving a store round-trip on the packet hot path.
func (uc *BalanceUseCase) AdjustForAccount(ctx context.Context, account *domain.Account, delta int64) (int64, error) {
	return uc.balances.AdjustBalance(ctx, account, delta)
}

// GetBalance is a point-in-time read for display; settlement decisions use
// the adjustment's own return value instead.
func (uc *BalanceUseCase) GetBalance(ctx context.Context, accountID string) (int64, error) {
	if _, err := uc.accounts.GetByID(ctx, accountID); err != nil {
		return 0, err
	}
	return uc.balances.GetBalance(ctx, accountID)
}
