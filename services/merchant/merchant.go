package merchant

import (
	"context"
	"errors"
	"fmt"

	merchantRepo "gutschein/database/repository/merchant"
	"gutschein/models"
	"gutschein/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MerchantService manages merchant profiles and their payment onboarding.
type MerchantService interface {
	// GetOrCreate loads the merchant behind a Firebase identity, creating
	// the profile on first sight.
	GetOrCreate(ctx context.Context, firebaseUID, email string) (*models.Merchant, error)
	// Update applies profile edits.
	Update(ctx context.Context, firebaseUID string, req models.UpdateMerchantRequest) (*models.Merchant, error)
	// ConnectStripe creates the merchant's express account and returns the
	// onboarding URL to send them to.
	ConnectStripe(ctx context.Context, firebaseUID string) (string, error)
}

// DefaultMerchantService is the production implementation.
type DefaultMerchantService struct {
	Repo     merchantRepo.MerchantRepository
	Checkout payment.CheckoutService
	Logger   *zap.Logger
}

func (s *DefaultMerchantService) GetOrCreate(ctx context.Context, firebaseUID, email string) (*models.Merchant, error) {
	m, err := s.Repo.GetByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	if m != nil {
		return m, nil
	}

	m = &models.Merchant{
		ID:          uuid.NewString(),
		FirebaseUID: firebaseUID,
		Email:       email,
	}
	if err := s.Repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create merchant: %w", err)
	}
	s.Logger.Info("merchant created", zap.String("merchantId", m.ID))
	return m, nil
}

func (s *DefaultMerchantService) Update(ctx context.Context, firebaseUID string, req models.UpdateMerchantRequest) (*models.Merchant, error) {
	m, err := s.Repo.GetByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant: %w", err)
	}
	if m == nil {
		return nil, errors.New("merchant not found")
	}

	if req.Name != "" {
		m.Name = req.Name
	}
	if req.Email != "" {
		m.Email = req.Email
	}
	if err := s.Repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update merchant: %w", err)
	}
	return m, nil
}

func (s *DefaultMerchantService) ConnectStripe(ctx context.Context, firebaseUID string) (string, error) {
	m, err := s.Repo.GetByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return "", fmt.Errorf("failed to load merchant: %w", err)
	}
	if m == nil {
		return "", errors.New("merchant not found")
	}

	if m.StripeAccountID == "" {
		acctID, err := s.Checkout.ConnectStripeAccount(ctx, m.Email)
		if err != nil {
			return "", err
		}
		m.StripeAccountID = acctID
		if err := s.Repo.Update(ctx, m); err != nil {
			return "", fmt.Errorf("failed to store stripe account: %w", err)
		}
		s.Logger.Info("stripe account connected",
			zap.String("merchantId", m.ID),
			zap.String("stripeAccountId", acctID))
	}

	// A fresh link is needed even for an existing account, they expire.
	return s.Checkout.StripeOnboardingLink(ctx, m.StripeAccountID)
}
