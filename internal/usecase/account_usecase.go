package usecase

import (
	"context"
	"time"

	"github.com/iho/ilpnode/internal/domain"
)

// AccountUseCase implements the account directory: administrative CRUD plus
// the self-service settings patch.
type AccountUseCase struct {
	accounts AccountRepository
	routes   RouteStore
	idGen    IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accounts AccountRepository, routes RouteStore, idGen IDGenerator) *AccountUseCase {
	return &AccountUseCase{
		accounts: accounts,
		routes:   routes,
		idGen:    idGen,
	}
}

// InsertAccount creates a new account with a zero balance. The username is
// normalized before the uniqueness check.
func (uc *AccountUseCase) InsertAccount(ctx context.Context, details domain.AccountDetails) (*domain.Account, error) {
	if err := details.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:                    uc.idGen.Generate(),
		Username:              domain.NormalizeUsername(details.Username),
		ILPAddress:            details.ILPAddress,
		AssetCode:             details.AssetCode,
		AssetScale:            details.AssetScale,
		HTTPEndpoint:          details.HTTPEndpoint,
		HTTPIncomingToken:     details.HTTPIncomingToken,
		HTTPOutgoingToken:     details.HTTPOutgoingToken,
		BTPURI:                details.BTPURI,
		BTPIncomingToken:      details.BTPIncomingToken,
		BTPOutgoingToken:      details.BTPOutgoingToken,
		MaxPacketAmount:       details.MaxPacketAmount,
		MinBalance:            details.MinBalance,
		AmountPerMinuteLimit:  details.AmountPerMinuteLimit,
		PacketsPerMinuteLimit: details.PacketsPerMinuteLimit,
		SettleThreshold:       details.SettleThreshold,
		SettleTo:              details.SettleTo,
		SettlementEngineURL:   details.SettlementEngineURL,
		RoutingRelation:       details.RoutingRelation,
		RoundTripTime:         details.RoundTripTime,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if account.RoutingRelation == "" {
		account.RoutingRelation = domain.RelationPeer
	}

	if err := uc.accounts.Insert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accounts.GetByID(ctx, id)
}

// GetAccountByUsername retrieves an account via the username index.
func (uc *AccountUseCase) GetAccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return uc.accounts.GetByUsername(ctx, domain.NormalizeUsername(username))
}

// ListAccounts lists accounts as a bounded page.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.accounts.List(ctx, limit, offset)
}

// UpdateAccount replaces the mutable subset of fields. ID, username and
// asset identity never change: balances denominated in the old asset would
// otherwise be reinterpreted.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, id string, details domain.AccountDetails) (*domain.Account, error) {
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Validate against the stored identity so callers cannot smuggle in a
	// rename through the update path.
	details.Username = account.Username
	details.AssetCode = account.AssetCode
	if err := details.Validate(); err != nil {
		return nil, err
	}

	account.ILPAddress = details.ILPAddress
	account.HTTPEndpoint = details.HTTPEndpoint
	account.HTTPIncomingToken = details.HTTPIncomingToken
	account.HTTPOutgoingToken = details.HTTPOutgoingToken
	account.BTPURI = details.BTPURI
	account.BTPIncomingToken = details.BTPIncomingToken
	account.BTPOutgoingToken = details.BTPOutgoingToken
	account.MaxPacketAmount = details.MaxPacketAmount
	account.MinBalance = details.MinBalance
	account.AmountPerMinuteLimit = details.AmountPerMinuteLimit
	account.PacketsPerMinuteLimit = details.PacketsPerMinuteLimit
	account.SettleThreshold = details.SettleThreshold
	account.SettleTo = details.SettleTo
	account.SettlementEngineURL = details.SettlementEngineURL
	if details.RoutingRelation != "" {
		account.RoutingRelation = details.RoutingRelation
	}
	account.RoundTripTime = details.RoundTripTime
	account.UpdatedAt = time.Now().UTC()

	if err := uc.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// PatchSettings applies the self-service subset: only the fields set on the
// patch change, everything else is left as stored.
func (uc *AccountUseCase) PatchSettings(ctx context.Context, id string, settings domain.AccountSettings) (*domain.Account, error) {
	account, err := uc.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if settings.HTTPIncomingToken != nil {
		account.HTTPIncomingToken = *settings.HTTPIncomingToken
	}
	if settings.HTTPOutgoingToken != nil {
		account.HTTPOutgoingToken = *settings.HTTPOutgoingToken
	}
	if settings.BTPIncomingToken != nil {
		account.BTPIncomingToken = *settings.BTPIncomingToken
	}
	if settings.BTPOutgoingToken != nil {
		account.BTPOutgoingToken = *settings.BTPOutgoingToken
	}
	if settings.HTTPEndpoint != nil {
		account.HTTPEndpoint = *settings.HTTPEndpoint
	}
	if settings.BTPURI != nil {
		account.BTPURI = *settings.BTPURI
	}
	if settings.SettleThreshold != nil {
		account.SettleThreshold = settings.SettleThreshold
	}
	if settings.SettleTo != nil {
		account.SettleTo = settings.SettleTo
	}
	if settings.SettlementEngineURL != nil {
		account.SettlementEngineURL = *settings.SettlementEngineURL
	}
	account.UpdatedAt = time.Now().UTC()

	if err := uc.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount removes the account, its balance and its username index
// entry, then prunes routing entries that pointed at it.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := uc.accounts.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.routes.RemoveRoutesForAccount(ctx, id); err != nil {
		return nil, err
	}
	return account, nil
}
