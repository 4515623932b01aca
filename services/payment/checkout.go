package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/utils"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"
)

// metadataCodeKey carries the voucher code through the provider round trip.
// The webhook side reads the same key back out of the event.
const metadataCodeKey = "gutscheincode"

// ErrVoucherNotFound is returned when a checkout references an unknown code.
var ErrVoucherNotFound = errors.New("voucher not found")

// ErrVoucherNotPayable is returned when the voucher is already redeemed.
var ErrVoucherNotPayable = errors.New("voucher is not payable")

// DefaultCheckoutService is the production implementation.
type DefaultCheckoutService struct {
	Vouchers      voucherRepo.VoucherRepository
	Stripe        *client.API
	Mollie        *MollieClient
	PublicBaseURL string
	Logger        *zap.Logger
}

func (s *DefaultCheckoutService) payableVoucher(ctx context.Context, code string) (*models.Voucher, error) {
	v, err := s.Vouchers.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	if v == nil {
		return nil, ErrVoucherNotFound
	}
	if v.Status != models.VoucherIssued {
		return nil, ErrVoucherNotPayable
	}
	return v, nil
}

// CreateStripeIntent opens a PaymentIntent carrying the voucher code in its
// metadata.
func (s *DefaultCheckoutService) CreateStripeIntent(ctx context.Context, voucherCode string) (*CheckoutSession, error) {
	v, err := s.payableVoucher(ctx, voucherCode)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(v.AmountCents),
		Currency:           stripe.String(strings.ToLower(v.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	params.AddMetadata(metadataCodeKey, v.Code)

	pi, err := s.Stripe.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe payment intent: %w", err)
	}

	s.Logger.Info("stripe payment intent created",
		zap.String("voucherCode", v.Code),
		zap.String("paymentIntentId", pi.ID))
	return &CheckoutSession{
		Provider:     models.ProviderStripe,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// CreateMolliePayment opens a Mollie payment and returns its hosted
// checkout URL. Mollie calls the webhook URL with just a payment id, so the
// voucher code travels in the payment metadata.
func (s *DefaultCheckoutService) CreateMolliePayment(ctx context.Context, voucherCode string) (*CheckoutSession, error) {
	v, err := s.payableVoucher(ctx, voucherCode)
	if err != nil {
		return nil, err
	}

	p, err := s.Mollie.CreatePayment(ctx, CreateMolliePaymentRequest{
		Amount: MollieAmount{
			Currency: v.Currency,
			Value:    utils.FormatCents(v.AmountCents),
		},
		Description: fmt.Sprintf("Gutschein %s", v.Code),
		RedirectURL: s.PublicBaseURL + "/danke",
		WebhookURL:  s.PublicBaseURL + "/api/webhook/mollie",
		Metadata:    map[string]string{metadataCodeKey: v.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mollie payment: %w", err)
	}

	s.Logger.Info("mollie payment created",
		zap.String("voucherCode", v.Code),
		zap.String("molliePaymentId", p.ID))
	return &CheckoutSession{
		Provider:    models.ProviderMollie,
		CheckoutURL: p.Links.Checkout.Href,
	}, nil
}

// ConnectStripeAccount creates an express account the merchant can get paid
// through.
func (s *DefaultCheckoutService) ConnectStripeAccount(ctx context.Context, merchantEmail string) (string, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: stripe.String(merchantEmail),
	}
	params.Context = ctx

	acct, err := s.Stripe.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe account: %w", err)
	}
	return acct.ID, nil
}

// StripeOnboardingLink returns the hosted onboarding URL for an express
// account. Links expire, so one is minted per request.
func (s *DefaultCheckoutService) StripeOnboardingLink(ctx context.Context, accountID string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(s.PublicBaseURL + "/merchant/onboarding/refresh"),
		ReturnURL:  stripe.String(s.PublicBaseURL + "/merchant/onboarding/done"),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx

	link, err := s.Stripe.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create onboarding link: %w", err)
	}
	return link.URL, nil
}
