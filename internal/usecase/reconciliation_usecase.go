package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iho/ilpnode/internal/domain"
)

// ReconciliationUseCase re-derives which accounts are owed a settlement by
// scanning balances against thresholds. Run at startup (and periodically) it
// backstops the outbox: a trigger lost to a crash is recomputed here rather
// than relying on in-memory delivery alone.
type ReconciliationUseCase struct {
	accounts AccountRepository
	balances BalanceStore
	outbox   OutboxRepository
	logger   *slog.Logger
}

// NewReconciliationUseCase creates a new ReconciliationUseCase.
func NewReconciliationUseCase(accounts AccountRepository, balances BalanceStore, outbox OutboxRepository, logger *slog.Logger) *ReconciliationUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationUseCase{
		accounts: accounts,
		balances: balances,
		outbox:   outbox,
		logger:   logger,
	}
}

// ReconciliationResult summarizes one pass.
type ReconciliationResult struct {
	AccountsScanned int
	Retriggered     int
	CheckedAt       time.Time
}

// Reenqueue scans every account and enqueues a settlement trigger for each
// one whose balance sits at or above its settle threshold. Duplicate
// triggers are harmless: the coordinator coalesces via the in-flight flag
// and re-derives the amount.
func (uc *ReconciliationUseCase) Reenqueue(ctx context.Context) (*ReconciliationResult, error) {
	result := &ReconciliationResult{CheckedAt: time.Now().UTC()}

	offset := 0
	for {
		accounts, err := uc.accounts.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("reconciliation scan: %w", err)
		}
		if len(accounts) == 0 {
			break
		}
		offset += len(accounts)

		for _, account := range accounts {
			result.AccountsScanned++
			if !account.SettlementConfigured() {
				continue
			}

			balance, err := uc.balances.GetBalance(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("reconciliation balance read for %s: %w", account.ID, err)
			}
			if balance < *account.SettleThreshold {
				continue
			}

			trigger := &domain.SettlementTrigger{
				AccountID: account.ID,
				Amount:    balance - account.SettleTarget(),
				Balance:   balance,
			}
			if err := uc.outbox.Enqueue(ctx, trigger); err != nil {
				return nil, fmt.Errorf("reconciliation enqueue for %s: %w", account.ID, err)
			}
			result.Retriggered++

			uc.logger.Info("re-enqueued settlement trigger",
				slog.String("account_id", account.ID),
				slog.Int64("balance", balance))
		}
	}

	return result, nil
}
