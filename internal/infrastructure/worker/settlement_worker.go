package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iho/ilpnode/internal/domain"
	"github.com/iho/ilpnode/internal/infrastructure/metrics"
	"github.com/iho/ilpnode/internal/usecase"
)

// SettlementWorker drains the settlement-trigger outbox and periodically
// reconciles balances against thresholds so triggers lost to a crash are
// recomputed rather than dropped.
type SettlementWorker struct {
	outbox      usecase.OutboxRepository
	coordinator *usecase.SettlementUseCase
	reconciler  *usecase.ReconciliationUseCase
	metrics     *metrics.Metrics
	logger      *slog.Logger

	pollTimeout       time.Duration
	reconcileInterval time.Duration
}

// Config for SettlementWorker.
type Config struct {
	Outbox            usecase.OutboxRepository
	Coordinator       *usecase.SettlementUseCase
	Reconciler        *usecase.ReconciliationUseCase
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
	PollTimeout       time.Duration
	ReconcileInterval time.Duration
}

// NewSettlementWorker creates a SettlementWorker.
func NewSettlementWorker(cfg Config) *SettlementWorker {
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 2 * time.Second
	}
	if cfg.ReconcileInterval == 0 {
		cfg.ReconcileInterval = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SettlementWorker{
		outbox:            cfg.Outbox,
		coordinator:       cfg.Coordinator,
		reconciler:        cfg.Reconciler,
		metrics:           cfg.Metrics,
		logger:            cfg.Logger,
		pollTimeout:       cfg.PollTimeout,
		reconcileInterval: cfg.ReconcileInterval,
	}
}

// Start runs until the context is cancelled. The startup reconciliation pass
// runs before the first poll so credit exposure from a previous crash is
// recovered immediately.
func (w *SettlementWorker) Start(ctx context.Context) error {
	w.logger.Info("settlement worker started",
		slog.Duration("poll_timeout", w.pollTimeout),
		slog.Duration("reconcile_interval", w.reconcileInterval))

	w.reconcile(ctx)

	ticker := time.NewTicker(w.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("settlement worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.reconcile(ctx)
		default:
			w.drainOne(ctx)
		}
	}
}

// drainOne pops and processes a single trigger, blocking up to pollTimeout.
func (w *SettlementWorker) drainOne(ctx context.Context) {
	trigger, err := w.outbox.Dequeue(ctx, w.pollTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("failed to dequeue settlement trigger", slog.String("error", err.Error()))
		time.Sleep(w.pollTimeout)
		return
	}
	if trigger == nil {
		return
	}

	if w.metrics != nil {
		w.metrics.SettlementsTriggered.Inc()
		if trigger.EmittedAt > 0 {
			lag := time.Since(time.UnixMilli(trigger.EmittedAt))
			w.metrics.OutboxLag.Observe(lag.Seconds())
		}
	}

	err = w.coordinator.TriggerOutgoingSettlement(ctx, trigger.AccountID)
	switch {
	case err == nil:
		if w.metrics != nil {
			w.metrics.SettlementsConfirmed.WithLabelValues(string(domain.SettlementOutgoing)).Inc()
			w.metrics.SettlementAmount.Observe(float64(trigger.Amount))
		}
	case errors.Is(err, domain.ErrSettlementInFlight):
		// Another attempt owns the account; coalesced, nothing to do.
		w.logger.Debug("settlement trigger coalesced", slog.String("account_id", trigger.AccountID))
	case errors.Is(err, domain.ErrNoSettlementEngine), errors.Is(err, domain.ErrAccountNotFound):
		w.logger.Warn("settlement trigger dropped",
			slog.String("account_id", trigger.AccountID),
			slog.String("reason", err.Error()))
	default:
		if w.metrics != nil {
			w.metrics.SettlementsFailed.Inc()
		}
		w.logger.Error("settlement attempt failed",
			slog.String("account_id", trigger.AccountID),
			slog.String("error", err.Error()))
	}
}

func (w *SettlementWorker) reconcile(ctx context.Context) {
	result, err := w.reconciler.Reenqueue(ctx)
	if err != nil {
		w.logger.Error("reconciliation pass failed", slog.String("error", err.Error()))
		return
	}
	w.logger.Info("reconciliation pass complete",
		slog.Int("accounts_scanned", result.AccountsScanned),
		slog.Int("retriggered", result.Retriggered))
}
