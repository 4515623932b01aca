package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"gutschein/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// metadataCodeKey is the PaymentIntent metadata field carrying the voucher
// code, set by the checkout service when the intent is created.
const metadataCodeKey = "gutscheincode"

// StripeAdapter verifies and normalizes Stripe webhook deliveries. Stripe
// signs its payloads, so the webhook body itself is trusted once the HMAC
// checks out; FetchStatus only serves the reconciliation sweep.
type StripeAdapter struct {
	webhookSecret string
	api           *client.API
	logger        *zap.Logger
}

// NewStripeAdapter builds the adapter with its own API client.
func NewStripeAdapter(apiKey, webhookSecret string, logger *zap.Logger) *StripeAdapter {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeAdapter{
		webhookSecret: webhookSecret,
		api:           api,
		logger:        logger,
	}
}

func (a *StripeAdapter) Provider() models.PaymentProvider { return models.ProviderStripe }

func (a *StripeAdapter) RequiresConfirmation() bool { return false }

// VerifyAndNormalize recomputes the HMAC over the exact raw bytes and maps
// the event into the internal shape. The stripe-go webhook package also
// enforces the timestamp tolerance window against replays.
func (a *StripeAdapter) VerifyAndNormalize(ctx context.Context, body []byte, headers http.Header) (*models.PaymentEvent, error) {
	event, err := webhook.ConstructEvent(body, headers.Get("Stripe-Signature"), a.webhookSecret)
	if err != nil {
		return nil, &SignatureError{Provider: string(models.ProviderStripe), Err: err}
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, &MalformedPayloadError{Reason: "event data is not a payment intent: " + err.Error()}
	}
	if pi.ID == "" {
		return nil, &MalformedPayloadError{Reason: "payment intent id missing"}
	}

	status := a.mapEventType(string(event.Type))

	return &models.PaymentEvent{
		Provider:          models.ProviderStripe,
		ExternalPaymentID: pi.ID,
		Status:            status,
		VoucherCode:       pi.Metadata[metadataCodeKey],
		AmountCents:       pi.Amount,
		Currency:          strings.ToUpper(string(pi.Currency)),
		RawPayload:        body,
	}, nil
}

// mapEventType folds Stripe's event vocabulary into the internal one.
// Anything unrecognized becomes pending, never succeeded.
func (a *StripeAdapter) mapEventType(eventType string) models.EventStatus {
	switch eventType {
	case "payment_intent.succeeded":
		return models.EventSucceeded
	case "payment_intent.payment_failed", "payment_intent.canceled":
		return models.EventFailed
	default:
		a.logger.Info("unhandled stripe event type, treating as pending",
			zap.String("eventType", eventType))
		return models.EventPending
	}
}

// FetchStatus queries Stripe for the current state of a payment intent.
func (a *StripeAdapter) FetchStatus(ctx context.Context, externalID string) (*models.PaymentEvent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := a.api.PaymentIntents.Get(externalID, params)
	if err != nil {
		return nil, &ConfirmationError{Err: err}
	}

	var status models.EventStatus
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.EventSucceeded
	case stripe.PaymentIntentStatusCanceled:
		status = models.EventFailed
	default:
		status = models.EventPending
	}

	return &models.PaymentEvent{
		Provider:          models.ProviderStripe,
		ExternalPaymentID: pi.ID,
		Status:            status,
		VoucherCode:       pi.Metadata[metadataCodeKey],
		AmountCents:       pi.Amount,
		Currency:          strings.ToUpper(string(pi.Currency)),
	}, nil
}
