package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"gutschein/models"
	"gutschein/services/payment"
	"gutschein/utils"

	"go.uber.org/zap"
)

// MollieAPI is the slice of the Mollie client the adapter needs.
type MollieAPI interface {
	GetPayment(ctx context.Context, id string) (*payment.MolliePayment, error)
}

// MollieAdapter handles Mollie webhook deliveries. Mollie webhooks carry no
// signature, only an opaque payment id, so the body is treated as a hint:
// everything about the payment, including its status, comes from an
// authenticated fetch against the Mollie API.
type MollieAdapter struct {
	client MollieAPI
	logger *zap.Logger
}

// NewMollieAdapter builds the adapter around a shared Mollie client.
func NewMollieAdapter(client MollieAPI, logger *zap.Logger) *MollieAdapter {
	return &MollieAdapter{client: client, logger: logger}
}

func (a *MollieAdapter) Provider() models.PaymentProvider { return models.ProviderMollie }

func (a *MollieAdapter) RequiresConfirmation() bool { return true }

// VerifyAndNormalize extracts the payment id from the webhook body. The
// returned event is deliberately pending with no amount or voucher code:
// none of those fields may be trusted until FetchStatus confirms them.
func (a *MollieAdapter) VerifyAndNormalize(ctx context.Context, body []byte, headers http.Header) (*models.PaymentEvent, error) {
	id := extractMolliePaymentID(body)
	if id == "" {
		return nil, &MalformedPayloadError{Reason: "mollie webhook carries no payment id"}
	}

	return &models.PaymentEvent{
		Provider:          models.ProviderMollie,
		ExternalPaymentID: id,
		Status:            models.EventPending,
		RawPayload:        body,
	}, nil
}

// extractMolliePaymentID reads the id from a form-encoded body ("id=tr_x"),
// falling back to JSON for clients that post it that way.
func extractMolliePaymentID(body []byte) string {
	if vals, err := url.ParseQuery(strings.TrimSpace(string(body))); err == nil {
		if id := vals.Get("id"); id != "" {
			return id
		}
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		return payload.ID
	}
	return ""
}

// FetchStatus performs the authenticated server-to-server fetch that stands
// in for signature verification.
func (a *MollieAdapter) FetchStatus(ctx context.Context, externalID string) (*models.PaymentEvent, error) {
	p, err := a.client.GetPayment(ctx, externalID)
	if err != nil {
		return nil, &ConfirmationError{Err: err}
	}

	cents, err := utils.ParseAmountToCents(p.Amount.Value)
	if err != nil {
		return nil, &MalformedPayloadError{Reason: "mollie amount unparseable: " + err.Error()}
	}

	return &models.PaymentEvent{
		Provider:          models.ProviderMollie,
		ExternalPaymentID: p.ID,
		Status:            a.mapStatus(p.Status),
		VoucherCode:       p.Metadata[metadataCodeKey],
		AmountCents:       cents,
		Currency:          strings.ToUpper(p.Amount.Currency),
	}, nil
}

// mapStatus folds Mollie's status vocabulary into the internal one.
// Anything unrecognized becomes pending, never succeeded.
func (a *MollieAdapter) mapStatus(status string) models.EventStatus {
	switch status {
	case "paid":
		return models.EventSucceeded
	case "failed", "canceled", "expired":
		return models.EventFailed
	case "open", "pending", "authorized":
		return models.EventPending
	default:
		a.logger.Info("unhandled mollie payment status, treating as pending",
			zap.String("status", status))
		return models.EventPending
	}
}
