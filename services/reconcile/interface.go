package reconcile

import (
	"context"
	"net/http"

	"gutschein/models"
)

// ProviderAdapter is the per-provider capability set the orchestrator is
// parameterized over. One control flow, one adapter per provider, instead
// of a near-duplicate webhook route per provider.
type ProviderAdapter interface {
	Provider() models.PaymentProvider

	// VerifyAndNormalize authenticates the raw webhook bytes and maps them
	// into the internal event shape. It must operate on the exact bytes
	// received, never on re-serialized JSON.
	VerifyAndNormalize(ctx context.Context, body []byte, headers http.Header) (*models.PaymentEvent, error)

	// RequiresConfirmation reports whether webhook payloads from this
	// provider are unsigned and therefore untrusted. When true, the
	// orchestrator discards the payload's claims and uses FetchStatus as
	// the source of truth.
	RequiresConfirmation() bool

	// FetchStatus re-queries the provider API for the authoritative state
	// of a payment. Used for confirmation and by the reconciliation sweep.
	FetchStatus(ctx context.Context, externalID string) (*models.PaymentEvent, error)
}

// ReconcileService handles inbound payment webhooks and replays of stuck
// ledger records.
type ReconcileService interface {
	// HandleWebhook runs the full verify, normalize, dedup, apply sequence
	// for one delivery. A nil error means the provider should be
	// acknowledged with 200; typed errors carry the response semantics.
	HandleWebhook(ctx context.Context, provider string, body []byte, headers http.Header) (*models.WebhookAck, error)

	// Replay re-fetches the provider state for a ledger record stuck in
	// "seen" and pushes it through the state machine again.
	Replay(ctx context.Context, rec models.PaymentRecord) error
}
