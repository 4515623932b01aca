package models

import "time"

// PaymentProvider identifies the payment service a webhook came from.
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderMollie PaymentProvider = "mollie"
)

// EventStatus is the internal three-value payment status vocabulary.
// Anything a provider reports that we do not recognize maps to
// EventPending, never to EventSucceeded.
type EventStatus string

const (
	EventSucceeded EventStatus = "succeeded"
	EventFailed    EventStatus = "failed"
	EventPending   EventStatus = "pending"
)

// LedgerStatus tracks how far a payment record got through reconciliation.
// A record stays "seen" until the transition attempt completes; only
// "applied" and "rejected" are terminal and suppress redelivery.
type LedgerStatus string

const (
	LedgerSeen     LedgerStatus = "seen"
	LedgerApplied  LedgerStatus = "applied"
	LedgerRejected LedgerStatus = "rejected"
)

// Flags set on ledger records that need operator review.
const (
	FlagOrphan           = "orphan"
	FlagAmountMismatch   = "amount_mismatch"
	FlagDuplicatePayment = "duplicate_payment"
)

// PaymentRecord is the durable idempotency ledger entry. One record exists
// per (provider, externalPaymentId); the pair is enforced unique by a
// storage-layer index so racing duplicate deliveries cannot both insert.
type PaymentRecord struct {
	ID                string          `bson:"id" json:"id"`
	Provider          PaymentProvider `bson:"provider" json:"provider"`
	ExternalPaymentID string          `bson:"externalPaymentId" json:"externalPaymentId"`
	VoucherCode       string          `bson:"voucherCode,omitempty" json:"voucherCode,omitempty"`
	Status            LedgerStatus    `bson:"status" json:"status"`
	AmountCents       int64           `bson:"amountCents" json:"amountCents"`
	Currency          string          `bson:"currency" json:"currency"`
	Flag              string          `bson:"flag,omitempty" json:"flag,omitempty"`
	ProcessedAt       *time.Time      `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedAt         time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// PaymentEvent is the normalized, transient form of a provider webhook.
// It is never persisted as its own entity; RawPayload is kept for audit
// logging only.
type PaymentEvent struct {
	Provider          PaymentProvider
	ExternalPaymentID string
	Status            EventStatus
	VoucherCode       string
	AmountCents       int64
	Currency          string
	RawPayload        []byte
}

// WebhookAck is the minimal acknowledgement body returned to providers.
type WebhookAck struct {
	Received bool `json:"received"`
}
