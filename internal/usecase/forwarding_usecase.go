package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/iho/ilpnode/internal/domain"
)

// swapped out in tests
var timeNow = time.Now

// ILP rejection codes surfaced to senders. Final (F) errors must not be
// retried upstream; temporary (T) errors may be.
const (
	CodeUnreachable           = "F02"
	CodeAmountTooLarge        = "F08"
	CodeInternalError         = "T00"
	CodeInsufficientLiquidity = "T04"
	CodeRateLimited           = "T05"
)

// accountLimiters holds the token buckets for one account's per-minute
// limits.
type accountLimiters struct {
	packets *rate.Limiter
	amount  *rate.Limiter
}

// ForwardingUseCase implements IncomingService: the balance-aware packet
// forwarding decision path. It never parses packet payloads.
type ForwardingUseCase struct {
	accounts AccountRepository
	balances *BalanceUseCase
	routing  *RoutingUseCase
	rates    *RateUseCase
	outgoing OutgoingService

	mu       sync.Mutex
	limiters map[string]*accountLimiters
}

// NewForwardingUseCase creates a new ForwardingUseCase.
func NewForwardingUseCase(
	accounts AccountRepository,
	balances *BalanceUseCase,
	routing *RoutingUseCase,
	rates *RateUseCase,
	outgoing OutgoingService,
) *ForwardingUseCase {
	return &ForwardingUseCase{
		accounts: accounts,
		balances: balances,
		routing:  routing,
		rates:    rates,
		outgoing: outgoing,
		limiters: make(map[string]*accountLimiters),
	}
}

// HandlePacket forwards one inbound packet from a counterparty account:
// rate limits, packet-size cap, route resolution, rate conversion, then the
// prepare-debit / fulfill-credit / reject-refund dance around the relay.
func (uc *ForwardingUseCase) HandlePacket(ctx context.Context, from *domain.Account, req ForwardRequest) (ForwardResult, error) {
	// The ledger is int64. An amount beyond that would wrap when negated
	// for the debit, turning it into a credit.
	if req.Amount > math.MaxInt64 {
		return reject(CodeAmountTooLarge, "amount exceeds maximum packet amount"), nil
	}
	if !uc.allow(from, req.Amount) {
		return reject(CodeRateLimited, "rate limit exceeded"), nil
	}
	if from.MaxPacketAmount > 0 && req.Amount > from.MaxPacketAmount {
		return reject(CodeAmountTooLarge, "amount exceeds maximum packet amount"), nil
	}

	nextHopID, err := uc.routing.Resolve(req.DestinationAddress)
	if err != nil {
		return reject(CodeUnreachable, "no route to destination"), nil
	}
	to, err := uc.accounts.GetByID(ctx, nextHopID)
	if err != nil {
		return reject(CodeInternalError, "next hop account missing"), nil
	}

	outAmount, err := uc.rates.Convert(req.Amount, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrAmountTooLarge) {
			return reject(CodeAmountTooLarge, "converted amount exceeds maximum"), nil
		}
		return reject(CodeInternalError, "no exchange rate for conversion"), nil
	}

	// Reserve: the sender extends us value, so their balance (what we owe
	// them) goes down, floored at min_balance.
	if _, err := uc.balances.AdjustForAccount(ctx, from, -int64(req.Amount)); err != nil {
		if errors.Is(err, domain.ErrBalanceLimitExceeded) {
			return reject(CodeInsufficientLiquidity, "insufficient balance"), nil
		}
		return ForwardResult{}, err
	}

	outReq := req
	outReq.Amount = outAmount
	result, err := uc.outgoing.SendPacket(ctx, to, outReq)
	if err != nil {
		// Relay failed: refund the reserve and reject as temporary.
		if _, refundErr := uc.balances.AdjustForAccount(ctx, from, int64(req.Amount)); refundErr != nil {
			return ForwardResult{}, refundErr
		}
		return reject(CodeInternalError, "next hop unavailable"), nil
	}

	if result.Fulfilled {
		// The next hop delivered value for us; credit what we now owe them.
		// This is the adjustment that can cross their settle threshold.
		if _, err := uc.balances.AdjustForAccount(ctx, to, int64(outAmount)); err != nil {
			return ForwardResult{}, err
		}
		return result, nil
	}

	// Rejected downstream: release the sender's reserve untouched.
	if _, err := uc.balances.AdjustForAccount(ctx, from, int64(req.Amount)); err != nil {
		return ForwardResult{}, err
	}
	return result, nil
}

// allow checks the account's per-minute packet and amount limits.
func (uc *ForwardingUseCase) allow(account *domain.Account, amount uint64) bool {
	if account.PacketsPerMinuteLimit == nil && account.AmountPerMinuteLimit == nil {
		return true
	}

	uc.mu.Lock()
	lim, ok := uc.limiters[account.ID]
	if !ok {
		lim = &accountLimiters{}
		if account.PacketsPerMinuteLimit != nil {
			perSec := rate.Limit(float64(*account.PacketsPerMinuteLimit) / 60.0)
			lim.packets = rate.NewLimiter(perSec, int(*account.PacketsPerMinuteLimit))
		}
		if account.AmountPerMinuteLimit != nil {
			perSec := rate.Limit(float64(*account.AmountPerMinuteLimit) / 60.0)
			lim.amount = rate.NewLimiter(perSec, int(*account.AmountPerMinuteLimit))
		}
		uc.limiters[account.ID] = lim
	}
	uc.mu.Unlock()

	if lim.packets != nil && !lim.packets.Allow() {
		return false
	}
	if lim.amount != nil {
		n := amount
		if n > math.MaxInt {
			n = math.MaxInt
		}
		if !lim.amount.AllowN(timeNow(), int(n)) {
			return false
		}
	}
	return true
}

func reject(code, message string) ForwardResult {
	return ForwardResult{Fulfilled: false, Code: code, Message: message}
}
