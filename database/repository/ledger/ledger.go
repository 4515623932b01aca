package ledgerRepo

import (
	"context"
	"time"

	"gutschein/models"
)

// LedgerRepository is the durable idempotency ledger. Every external payment
// id ever delivered to a webhook endpoint has exactly one record here;
// records are never deleted.
type LedgerRepository interface {
	// RecordIfNew attempts to insert a fresh record with status "seen". The
	// unique (provider, externalPaymentId) index decides races: exactly one
	// concurrent caller gets isNew=true, all others receive the already
	// stored record. Any other storage failure is returned as an error so
	// the caller can signal the provider to redeliver.
	RecordIfNew(ctx context.Context, rec *models.PaymentRecord) (isNew bool, existing *models.PaymentRecord, err error)

	// SetStatus moves a record to a terminal status, optionally attaching a
	// review flag. ProcessedAt is stamped on the first terminal write.
	SetStatus(ctx context.Context, provider models.PaymentProvider, externalID string, status models.LedgerStatus, flag string) error

	// ApplyRedemption commits the voucher status change and the ledger
	// "applied" write as a single transaction: either both land or neither
	// does. Reports whether this call performed the issued->redeemed
	// transition; when the voucher was already redeemed the record is still
	// marked applied but flagged as a possible duplicate payment.
	ApplyRedemption(ctx context.Context, provider models.PaymentProvider, externalID, code string) (redeemed bool, err error)

	// Get fetches a single record. Returns (nil, nil) when absent.
	Get(ctx context.Context, provider models.PaymentProvider, externalID string) (*models.PaymentRecord, error)

	// FindFlagged returns records carrying a review flag, newest first.
	FindFlagged(ctx context.Context, limit int64) ([]models.PaymentRecord, error)

	// FindStuckSeen returns records still in "seen" older than the cutoff.
	// These are deliveries whose transition attempt never completed; the
	// sweeper re-queries the provider and replays them.
	FindStuckSeen(ctx context.Context, olderThan time.Duration, limit int64) ([]models.PaymentRecord, error)
}
