package usecase

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/iho/ilpnode/internal/domain"
)

// rateSnapshot is an immutable rate table view. A packet conversion reads
// exactly one snapshot, so it can never mix rates from two updates.
type rateSnapshot struct {
	rates map[string]decimal.Decimal
}

// RateUseCase holds the exchange rate table and performs cross-asset,
// cross-scale amount conversion.
type RateUseCase struct {
	store    RateStore
	snapshot atomic.Pointer[rateSnapshot]
}

// NewRateUseCase creates a RateUseCase with an empty table.
func NewRateUseCase(store RateStore) *RateUseCase {
	uc := &RateUseCase{store: store}
	uc.snapshot.Store(&rateSnapshot{rates: map[string]decimal.Decimal{}})
	return uc
}

// Load rebuilds the snapshot from the store.
func (uc *RateUseCase) Load(ctx context.Context) error {
	rates, err := uc.store.GetAllRates(ctx)
	if err != nil {
		return err
	}
	uc.snapshot.Store(&rateSnapshot{rates: rates})
	return nil
}

// SetRates atomically replaces the whole table.
func (uc *RateUseCase) SetRates(ctx context.Context, rates map[string]decimal.Decimal) error {
	for code, rate := range rates {
		if err := domain.ValidateAssetCode(code); err != nil {
			return err
		}
		if rate.Sign() <= 0 {
			return fmt.Errorf("%w: rate for %s must be positive", domain.ErrInvalidField, code)
		}
	}
	if err := uc.store.ReplaceRates(ctx, rates); err != nil {
		return err
	}
	uc.snapshot.Store(&rateSnapshot{rates: rates})
	return nil
}

// GetRate returns the current rate for an asset code.
func (uc *RateUseCase) GetRate(assetCode string) (decimal.Decimal, error) {
	snap := uc.snapshot.Load()
	rate, ok := snap.rates[assetCode]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", domain.ErrRateUnknown, assetCode)
	}
	return rate, nil
}

// Rates returns a copy of the current table.
func (uc *RateUseCase) Rates() map[string]decimal.Decimal {
	snap := uc.snapshot.Load()
	out := make(map[string]decimal.Decimal, len(snap.rates))
	for k, v := range snap.rates {
		out[k] = v
	}
	return out
}

// Convert converts amount from one account's asset and scale to another's,
// reading both rates from a single snapshot. Rounds down: the node never
// delivers more than the rate allows.
func (uc *RateUseCase) Convert(amount uint64, from, to *domain.Account) (uint64, error) {
	if amount > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d does not fit the ledger", domain.ErrAmountTooLarge, amount)
	}
	if from.AssetCode == to.AssetCode && from.AssetScale == to.AssetScale {
		return amount, nil
	}

	snap := uc.snapshot.Load()
	rateIn, ok := snap.rates[from.AssetCode]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrRateUnknown, from.AssetCode)
	}
	rateOut, ok := snap.rates[to.AssetCode]
	if !ok {
		return 0, fmt.Errorf("%w: %s", domain.ErrRateUnknown, to.AssetCode)
	}

	converted := decimal.NewFromUint64(amount).
		Mul(rateIn).
		Div(rateOut).
		Shift(int32(to.AssetScale) - int32(from.AssetScale)).
		Floor()
	// The delivered amount must fit the receiving side's int64 ledger too:
	// a scale-up conversion can overflow even when the input did not.
	if converted.Sign() < 0 || !converted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: conversion overflow", domain.ErrAmountTooLarge)
	}
	return converted.BigInt().Uint64(), nil
}
