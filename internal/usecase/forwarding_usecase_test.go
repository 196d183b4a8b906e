package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/usecase"
	"github.com/iho/ilpnode/internal/usecase/mocks"
)

type forwardingFixture struct {
	uc       *usecase.ForwardingUseCase
	accounts *mocks.MockAccountRepository
	balances *mocks.MockBalanceStore
	outgoing *mocks.MockOutgoingService

	sender   *domain.Account
	receiver *domain.Account
}

func newForwardingFixture(t *testing.T) *forwardingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	accounts := mocks.NewMockAccountRepository()
	balanceStore := mocks.NewMockBalanceStore()
	routeStore := mocks.NewMockRouteStore()
	rateStore := mocks.NewMockRateStore()
	outgoing := mocks.NewMockOutgoingService(ctrl)

	minBalance := int64(-1000)
	sender := &domain.Account{
		ID:              "acct-sender",
		Username:        "sender",
		AssetCode:       "USD",
		AssetScale:      6,
		MaxPacketAmount: 10000,
		MinBalance:      &minBalance,
	}
	receiver := &domain.Account{
		ID:         "acct-receiver",
		Username:   "receiver",
		AssetCode:  "USD",
		AssetScale: 6,
	}
	if err := accounts.Insert(ctx, sender); err != nil {
		t.Fatalf("seed sender: %v", err)
	}
	if err := accounts.Insert(ctx, receiver); err != nil {
		t.Fatalf("seed receiver: %v", err)
	}

	balanceUC := usecase.NewBalanceUseCase(accounts, balanceStore)
	routingUC := usecase.NewRoutingUseCase(routeStore, accounts, "")
	if err := routingUC.SetStaticRoute(ctx, "example.receiver", receiver.ID); err != nil {
		t.Fatalf("seed route: %v", err)
	}
	rateUC := usecase.NewRateUseCase(rateStore)
	if err := rateUC.SetRates(ctx, map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("1.25"),
	}); err != nil {
		t.Fatalf("seed rates: %v", err)
	}

	return &forwardingFixture{
		uc:       usecase.NewForwardingUseCase(accounts, balanceUC, routingUC, rateUC, outgoing),
		accounts: accounts,
		balances: balanceStore,
		outgoing: outgoing,
		sender:   sender,
		receiver: receiver,
	}
}

func packet(destination string, amount uint64) usecase.ForwardRequest {
	return usecase.ForwardRequest{DestinationAddress: destination, Amount: amount, Data: []byte("opaque")}
}

func TestForwardingUseCase_FulfillMovesBothBalances(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	f.outgoing.EXPECT().
		SendPacket(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, to *domain.Account, req usecase.ForwardRequest) (usecase.ForwardResult, error) {
			if to.ID != f.receiver.ID {
				t.Errorf("relayed to %q, want %q", to.ID, f.receiver.ID)
			}
			return usecase.ForwardResult{Fulfilled: true, Data: []byte("fulfillment")}, nil
		})

	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 100))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if !result.Fulfilled {
		t.Fatalf("expected fulfillment, got reject %s", result.Code)
	}

	senderBal, _ := f.balances.GetBalance(ctx, f.sender.ID)
	receiverBal, _ := f.balances.GetBalance(ctx, f.receiver.ID)
	if senderBal != -100 {
		t.Errorf("sender balance = %d, want -100", senderBal)
	}
	if receiverBal != 100 {
		t.Errorf("receiver balance = %d, want 100", receiverBal)
	}
}

func TestForwardingUseCase_RejectRefundsSender(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	f.outgoing.EXPECT().
		SendPacket(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(usecase.ForwardResult{Fulfilled: false, Code: "F99", Message: "application error"}, nil)

	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 100))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Fulfilled || result.Code != "F99" {
		t.Fatalf("expected downstream reject to pass through, got %+v", result)
	}

	senderBal, _ := f.balances.GetBalance(ctx, f.sender.ID)
	receiverBal, _ := f.balances.GetBalance(ctx, f.receiver.ID)
	if senderBal != 0 {
		t.Errorf("sender balance = %d, want 0 after refund", senderBal)
	}
	if receiverBal != 0 {
		t.Errorf("receiver balance = %d, want 0", receiverBal)
	}
}

func TestForwardingUseCase_RelayErrorRefundsAndRejectsTemporary(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	f.outgoing.EXPECT().
		SendPacket(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(usecase.ForwardResult{}, errors.New("connection refused"))

	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 100))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Code != usecase.CodeInternalError {
		t.Errorf("expected %s, got %s", usecase.CodeInternalError, result.Code)
	}

	senderBal, _ := f.balances.GetBalance(ctx, f.sender.ID)
	if senderBal != 0 {
		t.Errorf("sender balance = %d, want 0 after refund", senderBal)
	}
}

func TestForwardingUseCase_NoRoute(t *testing.T) {
	f := newForwardingFixture(t)

	result, err := f.uc.HandlePacket(context.Background(), f.sender, packet("nowhere.alice", 100))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Code != usecase.CodeUnreachable {
		t.Errorf("expected %s, got %s", usecase.CodeUnreachable, result.Code)
	}
}

func TestForwardingUseCase_AmountTooLarge(t *testing.T) {
	f := newForwardingFixture(t)

	result, err := f.uc.HandlePacket(context.Background(), f.sender, packet("example.receiver.alice", 10001))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Code != usecase.CodeAmountTooLarge {
		t.Errorf("expected %s, got %s", usecase.CodeAmountTooLarge, result.Code)
	}
}

func TestForwardingUseCase_OverflowAmountRejectedNotCredited(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	// No per-packet cap: the int64 representability check alone must stop
	// this. Negating an amount past math.MaxInt64 would wrap the debit into
	// a huge credit to the sender.
	f.sender.MaxPacketAmount = 0

	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", uint64(math.MaxInt64)+1000))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Fulfilled || result.Code != usecase.CodeAmountTooLarge {
		t.Fatalf("expected %s reject, got %+v", usecase.CodeAmountTooLarge, result)
	}

	senderBal, _ := f.balances.GetBalance(ctx, f.sender.ID)
	receiverBal, _ := f.balances.GetBalance(ctx, f.receiver.ID)
	if senderBal != 0 {
		t.Errorf("sender balance = %d, want 0 untouched", senderBal)
	}
	if receiverBal != 0 {
		t.Errorf("receiver balance = %d, want 0 untouched", receiverBal)
	}
}

func TestForwardingUseCase_InsufficientLiquidity(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	// The sender already owes us min_balance worth; the next debit busts the
	// floor and must not touch either balance.
	f.balances.SetBalance(f.sender.ID, -950)

	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 100))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Code != usecase.CodeInsufficientLiquidity {
		t.Errorf("expected %s, got %s", usecase.CodeInsufficientLiquidity, result.Code)
	}

	senderBal, _ := f.balances.GetBalance(ctx, f.sender.ID)
	if senderBal != -950 {
		t.Errorf("sender balance = %d, want -950 unchanged", senderBal)
	}
}

func TestForwardingUseCase_PacketsPerMinuteLimit(t *testing.T) {
	f := newForwardingFixture(t)
	ctx := context.Background()

	limit := uint32(2)
	f.sender.PacketsPerMinuteLimit = &limit

	f.outgoing.EXPECT().
		SendPacket(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(usecase.ForwardResult{Fulfilled: true}, nil).
		Times(2)

	for i := 0; i < 2; i++ {
		result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 10))
		if err != nil || !result.Fulfilled {
			t.Fatalf("packet %d should pass: result=%+v err=%v", i, result, err)
		}
	}

	// The burst is exhausted; the third packet inside the same minute fails.
	result, err := f.uc.HandlePacket(ctx, f.sender, packet("example.receiver.alice", 10))
	if err != nil {
		t.Fatalf("HandlePacket failed: %v", err)
	}
	if result.Code != usecase.CodeRateLimited {
		t.Errorf("expected %s, got %s", usecase.CodeRateLimited, result.Code)
	}
}
