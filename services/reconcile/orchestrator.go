package reconcile

import (
	"context"
	"net/http"

	ledgerRepo "gutschein/database/repository/ledger"
	"gutschein/models"

	"go.uber.org/zap"
)

// DefaultReconcileService ties verification, normalization, dedup and the
// state machine together, one webhook delivery at a time. It is the only
// writer of payment records and the only trigger of voucher transitions.
type DefaultReconcileService struct {
	Adapters map[models.PaymentProvider]ProviderAdapter
	Ledger   ledgerRepo.LedgerRepository
	Machine  *StateMachine
	Logger   *zap.Logger
}

// HandleWebhook runs the full sequence. Each step short-circuits the rest
// on failure, and nothing before the ledger step has side effects, so a
// rejected payload can never leave partial state behind.
func (s *DefaultReconcileService) HandleWebhook(ctx context.Context, provider string, body []byte, headers http.Header) (*models.WebhookAck, error) {
	adapter, ok := s.Adapters[models.PaymentProvider(provider)]
	if !ok {
		return nil, &UnknownProviderError{Name: provider}
	}

	evt, err := adapter.VerifyAndNormalize(ctx, body, headers)
	if err != nil {
		return nil, err
	}

	if adapter.RequiresConfirmation() {
		// Unsigned provider: discard the webhook's claims entirely and use
		// the authenticated fetch as the verified payload.
		confirmed, err := adapter.FetchStatus(ctx, evt.ExternalPaymentID)
		if err != nil {
			return nil, err
		}
		confirmed.RawPayload = evt.RawPayload
		evt = confirmed
	}

	isNew, existing, err := s.Ledger.RecordIfNew(ctx, &models.PaymentRecord{
		Provider:          evt.Provider,
		ExternalPaymentID: evt.ExternalPaymentID,
		VoucherCode:       evt.VoucherCode,
		AmountCents:       evt.AmountCents,
		Currency:          evt.Currency,
	})
	if err != nil {
		return nil, &PersistenceError{Err: err}
	}
	if !isNew && existing.Status != models.LedgerSeen {
		// Terminal record: a previous delivery finished processing this
		// payment. Acknowledge without reapplying anything.
		s.Logger.Info("duplicate webhook delivery suppressed",
			zap.String("provider", provider),
			zap.String("externalPaymentId", evt.ExternalPaymentID),
			zap.String("recordStatus", string(existing.Status)))
		return &models.WebhookAck{Received: true}, nil
	}
	// A "seen"-only record means an earlier attempt never completed its
	// transition; this delivery re-enters and finishes the job.

	out, err := s.Machine.Apply(ctx, evt)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("webhook reconciled",
		zap.String("provider", provider),
		zap.String("externalPaymentId", evt.ExternalPaymentID),
		zap.String("voucherCode", evt.VoucherCode),
		zap.String("eventStatus", string(evt.Status)),
		zap.String("ledgerStatus", string(out.Ledger)),
		zap.String("flag", out.Flag),
		zap.Bool("redeemed", out.Redeemed))
	return &models.WebhookAck{Received: true}, nil
}

// Replay pushes a stuck ledger record through the state machine again,
// using a fresh authoritative fetch from the provider.
func (s *DefaultReconcileService) Replay(ctx context.Context, rec models.PaymentRecord) error {
	adapter, ok := s.Adapters[rec.Provider]
	if !ok {
		return &UnknownProviderError{Name: string(rec.Provider)}
	}

	evt, err := adapter.FetchStatus(ctx, rec.ExternalPaymentID)
	if err != nil {
		return err
	}
	if evt.VoucherCode == "" {
		// Some providers omit metadata on fetch; fall back to what the
		// original delivery recorded.
		evt.VoucherCode = rec.VoucherCode
	}

	_, err = s.Machine.Apply(ctx, evt)
	return err
}
