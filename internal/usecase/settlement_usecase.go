package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iho/ilpnode/internal/domain"
)

// SettlementUseCase coordinates outgoing settlement requests and incoming
// settlement credits. At most one outgoing settlement is in flight per
// account; incoming notifications are idempotent under at-least-once
// delivery.
type SettlementUseCase struct {
	accounts    AccountRepository
	balances    BalanceStore
	settlements SettlementStore
	engine      SettlementEngineClient
	archive     SettlementArchive // nil disables the audit archive
	logger      *slog.Logger
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	accounts AccountRepository,
	balances BalanceStore,
	settlements SettlementStore,
	engine SettlementEngineClient,
	archive SettlementArchive,
	logger *slog.Logger,
) *SettlementUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettlementUseCase{
		accounts:    accounts,
		balances:    balances,
		settlements: settlements,
		engine:      engine,
		archive:     archive,
		logger:      logger,
	}
}

// TriggerOutgoingSettlement settles the account down to its settle_to
// target. The amount is re-derived from the current balance, never replayed
// from the trigger that delivered us here, so a stale or duplicated trigger
// can only ever settle what is actually owed. Returns
// domain.ErrSettlementInFlight when another attempt holds the in-flight
// flag; callers treat that as success-equivalent coalescing.
func (uc *SettlementUseCase) TriggerOutgoingSettlement(ctx context.Context, accountID string) error {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.SettlementConfigured() {
		return domain.ErrNoSettlementEngine
	}

	token := uuid.NewString()
	acquired, err := uc.settlements.AcquireInFlight(ctx, accountID, token, SettlementInFlightTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return domain.ErrSettlementInFlight
	}
	defer func() {
		if err := uc.settlements.ReleaseInFlight(context.WithoutCancel(ctx), accountID, token); err != nil {
			uc.logger.Error("failed to release settlement in-flight flag",
				slog.String("account_id", accountID),
				slog.String("error", err.Error()))
		}
	}()

	balance, err := uc.balances.GetBalance(ctx, accountID)
	if err != nil {
		return err
	}
	amount := balance - account.SettleTarget()
	if amount <= 0 {
		// Already settled (or a concurrent credit landed first).
		return nil
	}

	// The token doubles as the engine-side idempotency key: a retried
	// request with the same key must not move value twice.
	err = uc.engine.SendSettlement(ctx, account.SettlementEngineURL, accountID, uint64(amount), account.AssetScale, token)
	if err != nil {
		if errors.Is(err, domain.ErrEngineUnreachable) {
			msg := fmt.Sprintf("settlement of %d failed at %s: engine unreachable", amount, time.Now().UTC().Format(time.RFC3339))
			if alertErr := uc.accounts.SetSettlementAlert(ctx, accountID, msg); alertErr != nil {
				uc.logger.Error("failed to set settlement alert",
					slog.String("account_id", accountID),
					slog.String("error", alertErr.Error()))
			}
		}
		return err
	}

	// Debit only after the engine confirmed the outgoing transfer.
	newBalance, err := uc.balances.AdjustBalance(ctx, account, -amount)
	if err != nil {
		// The value moved but the ledger refused the debit. This should be
		// unreachable with settle_to >= 0 >= min_balance; surface loudly.
		uc.logger.Error("confirmed settlement could not be debited",
			slog.String("account_id", accountID),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()))
		return err
	}

	uc.logger.Info("outgoing settlement confirmed",
		slog.String("account_id", accountID),
		slog.Int64("amount", amount),
		slog.Int64("balance", newBalance))

	uc.archiveRecord(ctx, &domain.SettlementRecord{
		ID:             token,
		AccountID:      accountID,
		Direction:      domain.SettlementOutgoing,
		Amount:         uint64(amount),
		AssetCode:      account.AssetCode,
		AssetScale:     account.AssetScale,
		IdempotencyKey: token,
		EngineURL:      account.SettlementEngineURL,
		ConfirmedAt:    time.Now().UTC(),
	})
	return nil
}

// ApplyIncomingSettlement credits the balance exactly once per idempotency
// key. Replays return the current balance with applied=false and are not an
// error to the caller.
func (uc *SettlementUseCase) ApplyIncomingSettlement(ctx context.Context, accountID string, amount uint64, idempotencyKey string) (int64, bool, error) {
	account, err := uc.accounts.GetByID(ctx, accountID)
	if err != nil {
		return 0, false, err
	}
	if idempotencyKey == "" {
		return 0, false, fmt.Errorf("%w: idempotency key is required", domain.ErrInvalidField)
	}

	newBalance, applied, err := uc.settlements.CreditIncoming(ctx, accountID, amount, idempotencyKey)
	if err != nil {
		return 0, false, err
	}
	if !applied {
		uc.logger.Debug("duplicate incoming settlement ignored",
			slog.String("account_id", accountID),
			slog.String("idempotency_key", idempotencyKey))
		return newBalance, false, nil
	}

	uc.logger.Info("incoming settlement applied",
		slog.String("account_id", accountID),
		slog.Uint64("amount", amount),
		slog.Int64("balance", newBalance))

	uc.archiveRecord(ctx, &domain.SettlementRecord{
		ID:             idempotencyKey,
		AccountID:      accountID,
		Direction:      domain.SettlementIncoming,
		Amount:         amount,
		AssetCode:      account.AssetCode,
		AssetScale:     account.AssetScale,
		IdempotencyKey: idempotencyKey,
		EngineURL:      account.SettlementEngineURL,
		ConfirmedAt:    time.Now().UTC(),
	})
	return newBalance, true, nil
}

// ListSettlements returns the archived settlement history for an account.
func (uc *SettlementUseCase) ListSettlements(ctx context.Context, accountID string, limit, offset int) ([]*domain.SettlementRecord, error) {
	if uc.archive == nil {
		return nil, nil
	}
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.archive.ListByAccount(ctx, accountID, limit, offset)
}

// archiveRecord writes the audit row. Archive failures are logged, not
// propagated: the ledger already committed.
func (uc *SettlementUseCase) archiveRecord(ctx context.Context, rec *domain.SettlementRecord) {
	if uc.archive == nil {
		return
	}
	if err := uc.archive.Record(ctx, rec); err != nil {
		uc.logger.Error("failed to archive settlement",
			slog.String("account_id", rec.AccountID),
			slog.String("direction", string(rec.Direction)),
			slog.String("error", err.Error()))
	}
}
