package cron

import (
	"context"
	"time"

	ledgerRepo "gutschein/database/repository/ledger"
	"gutschein/services/reconcile"

	"go.uber.org/zap"
)

// ReconciliationWorker periodically sweeps ledger records stuck in "seen".
// Those are deliveries whose transition attempt died mid-flight (crash,
// lost database connection). The sweep asks the provider for the payment's
// current status and replays it through the same pipeline the webhook
// would have used.
type ReconciliationWorker struct {
	Ledger     ledgerRepo.LedgerRepository
	Reconciler reconcile.ReconcileService
	StuckAfter time.Duration
	Interval   time.Duration
	Logger     *zap.Logger
}

// Run blocks until ctx is cancelled.
func (rw *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	rw.Logger.Info("reconciliation sweeper started",
		zap.Duration("interval", rw.Interval),
		zap.Duration("stuckAfter", rw.StuckAfter))

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Info("reconciliation sweeper stopped")
			return
		case <-ticker.C:
			if err := rw.sweep(ctx); err != nil {
				rw.Logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

func (rw *ReconciliationWorker) sweep(ctx context.Context) error {
	stuck, err := rw.Ledger.FindStuckSeen(ctx, rw.StuckAfter, 100)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	rw.Logger.Info("replaying stuck payment records", zap.Int("count", len(stuck)))

	for _, rec := range stuck {
		if err := rw.Reconciler.Replay(ctx, rec); err != nil {
			// Leave it for the next sweep.
			rw.Logger.Warn("replay failed",
				zap.String("provider", string(rec.Provider)),
				zap.String("externalPaymentId", rec.ExternalPaymentID),
				zap.Error(err))
		}
	}
	return nil
}
