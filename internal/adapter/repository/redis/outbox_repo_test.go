package redis

import (
	"context"
	"testing"

	"github.com/iho/ilpnode/internal/domain"
)

func TestOutboxRepository_FIFO(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	outbox := NewOutboxRepository(client)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		if err := outbox.Enqueue(ctx, &domain.SettlementTrigger{AccountID: id, Amount: 100}); err != nil {
			t.Fatalf("enqueue failed: %v", err)
		}
	}

	for _, want := range []string{"a1", "a2", "a3"} {
		trigger, err := outbox.Dequeue(ctx, pollTimeout)
		if err != nil {
			t.Fatalf("dequeue failed: %v", err)
		}
		if trigger == nil || trigger.AccountID != want {
			t.Fatalf("expected %s, got %+v", want, trigger)
		}
		if trigger.EmittedAt == 0 {
			t.Error("EmittedAt should be stamped on enqueue")
		}
	}
}

func TestOutboxRepository_EmptyTimesOut(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	outbox := NewOutboxRepository(client)

	trigger, err := outbox.Dequeue(context.Background(), pollTimeout)
	if err != nil {
		t.Fatalf("empty dequeue should not error: %v", err)
	}
	if trigger != nil {
		t.Fatalf("expected nil trigger, got %+v", trigger)
	}
}
