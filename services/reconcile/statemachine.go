package reconcile

import (
	"context"
	"strings"

	ledgerRepo "gutschein/database/repository/ledger"
	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/services/notification"
	"gutschein/utils"

	"go.uber.org/zap"
)

// Outcome describes what applying one normalized event did.
type Outcome struct {
	// Ledger is the status the payment record ended up in. LedgerSeen means
	// the event was inconclusive (pending) and a later delivery or the
	// sweeper may still complete it.
	Ledger models.LedgerStatus
	// Flag is set when the record needs operator review.
	Flag string
	// Redeemed is true only when this very call moved the voucher from
	// issued to redeemed.
	Redeemed bool
}

// StateMachine applies a verified, de-duplicated payment event to the
// voucher lifecycle. Valid transitions only: issued moves to redeemed on a
// succeeded event with a matching amount; everything else is recorded
// without touching the voucher.
type StateMachine struct {
	Vouchers       voucherRepo.VoucherRepository
	Ledger         ledgerRepo.LedgerRepository
	Notifier       notification.NotificationService
	ToleranceCents int64
	Logger         *zap.Logger
}

// Apply runs one event through the lifecycle rules. Storage failures come
// back as *PersistenceError so the orchestrator can ask the provider to
// redeliver; every business-level oddity (orphan, mismatch, duplicate) is
// absorbed into the ledger instead of failing the request.
func (m *StateMachine) Apply(ctx context.Context, evt *models.PaymentEvent) (*Outcome, error) {
	if evt.VoucherCode == "" {
		return m.rejectOrphan(ctx, evt, "event carries no voucher code")
	}

	voucher, err := m.Vouchers.GetByCode(ctx, evt.VoucherCode)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if voucher == nil {
		return m.rejectOrphan(ctx, evt, "no voucher with this code exists")
	}

	switch evt.Status {
	case models.EventPending:
		// Inconclusive: leave the record "seen" so a conclusive delivery
		// for the same payment id can still get through.
		m.Logger.Info("pending payment event recorded, awaiting outcome",
			zap.String("provider", string(evt.Provider)),
			zap.String("externalPaymentId", evt.ExternalPaymentID),
			zap.String("voucherCode", evt.VoucherCode))
		return &Outcome{Ledger: models.LedgerSeen}, nil

	case models.EventFailed:
		// A failed payment changes nothing on the voucher but is applied in
		// the ledger so redeliveries of the same failure dedup cleanly.
		if err := m.Ledger.SetStatus(ctx, evt.Provider, evt.ExternalPaymentID, models.LedgerApplied, ""); err != nil {
			return nil, &PersistenceError{Err: err}
		}
		m.Logger.Info("failed payment recorded, voucher unchanged",
			zap.String("provider", string(evt.Provider)),
			zap.String("externalPaymentId", evt.ExternalPaymentID),
			zap.String("voucherCode", evt.VoucherCode))
		return &Outcome{Ledger: models.LedgerApplied}, nil

	case models.EventSucceeded:
		return m.applySucceeded(ctx, evt, voucher)

	default:
		return nil, &MalformedPayloadError{Reason: "unknown event status " + string(evt.Status)}
	}
}

func (m *StateMachine) applySucceeded(ctx context.Context, evt *models.PaymentEvent, voucher *models.Voucher) (*Outcome, error) {
	if !strings.EqualFold(voucher.Currency, evt.Currency) ||
		!utils.CentsWithinTolerance(voucher.AmountCents, evt.AmountCents, m.ToleranceCents) {
		// The provider says the payment succeeded but the money does not
		// match the voucher. Crediting it anyway would let a tampered
		// metadata field buy a 50 EUR voucher for 5 cents.
		if err := m.Ledger.SetStatus(ctx, evt.Provider, evt.ExternalPaymentID, models.LedgerRejected, models.FlagAmountMismatch); err != nil {
			return nil, &PersistenceError{Err: err}
		}
		m.Logger.Warn("amount mismatch, transition rejected",
			zap.String("provider", string(evt.Provider)),
			zap.String("externalPaymentId", evt.ExternalPaymentID),
			zap.String("voucherCode", evt.VoucherCode),
			zap.Int64("voucherAmountCents", voucher.AmountCents),
			zap.Int64("eventAmountCents", evt.AmountCents),
			zap.String("voucherCurrency", voucher.Currency),
			zap.String("eventCurrency", evt.Currency))
		return &Outcome{Ledger: models.LedgerRejected, Flag: models.FlagAmountMismatch}, nil
	}

	redeemed, err := m.Ledger.ApplyRedemption(ctx, evt.Provider, evt.ExternalPaymentID, voucher.Code)
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}

	out := &Outcome{Ledger: models.LedgerApplied, Redeemed: redeemed}
	if redeemed {
		m.Logger.Info("voucher redeemed",
			zap.String("voucherCode", voucher.Code),
			zap.String("provider", string(evt.Provider)),
			zap.String("externalPaymentId", evt.ExternalPaymentID))
		if err := m.Notifier.SendVoucherRedeemedNotice(ctx, voucher.Code); err != nil {
			// Fire and forget: the redemption stands either way.
			m.Logger.Error("failed to queue redemption notice",
				zap.String("voucherCode", voucher.Code), zap.Error(err))
		}
	} else {
		// A different payment already redeemed this voucher. The second
		// payment is acknowledged but flagged as a possible double charge.
		out.Flag = models.FlagDuplicatePayment
		m.Logger.Warn("voucher already redeemed, possible duplicate payment",
			zap.String("voucherCode", voucher.Code),
			zap.String("provider", string(evt.Provider)),
			zap.String("externalPaymentId", evt.ExternalPaymentID))
	}
	return out, nil
}

func (m *StateMachine) rejectOrphan(ctx context.Context, evt *models.PaymentEvent, reason string) (*Outcome, error) {
	if err := m.Ledger.SetStatus(ctx, evt.Provider, evt.ExternalPaymentID, models.LedgerRejected, models.FlagOrphan); err != nil {
		return nil, &PersistenceError{Err: err}
	}
	// Orphans are recorded and flagged, never dropped and never fatal: the
	// provider's payment is real even if we cannot match it.
	m.Logger.Warn("orphan payment event",
		zap.String("provider", string(evt.Provider)),
		zap.String("externalPaymentId", evt.ExternalPaymentID),
		zap.String("voucherCode", evt.VoucherCode),
		zap.String("reason", reason),
		zap.ByteString("rawPayload", evt.RawPayload))
	return &Outcome{Ledger: models.LedgerRejected, Flag: models.FlagOrphan}, nil
}
