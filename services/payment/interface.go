package payment

import (
	"context"

	"gutschein/models"
)

// CheckoutSession is what the storefront needs to collect a payment.
type CheckoutSession struct {
	// Provider the session was created with.
	Provider models.PaymentProvider `json:"provider"`
	// ClientSecret is set for Stripe and feeds Stripe.js on the client.
	ClientSecret string `json:"clientSecret,omitempty"`
	// CheckoutURL is set for Mollie and is where the buyer gets redirected.
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

// CheckoutService starts payments for issued vouchers and manages the
// merchant side Stripe Connect accounts. It never marks anything paid;
// that happens only through the webhook pipeline.
type CheckoutService interface {
	// CreateStripeIntent opens a Stripe PaymentIntent for the voucher.
	CreateStripeIntent(ctx context.Context, voucherCode string) (*CheckoutSession, error)
	// CreateMolliePayment opens a Mollie payment for the voucher.
	CreateMolliePayment(ctx context.Context, voucherCode string) (*CheckoutSession, error)
	// ConnectStripeAccount creates an express account for a merchant and
	// returns its id.
	ConnectStripeAccount(ctx context.Context, merchantEmail string) (string, error)
	// StripeOnboardingLink returns the hosted onboarding URL for an
	// already created express account.
	StripeOnboardingLink(ctx context.Context, accountID string) (string, error)
}
