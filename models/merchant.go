package models

import "time"

// Merchant is a business selling vouchers through the platform. Identity
// comes from Firebase; payment-provider account references are attached
// during onboarding.
type Merchant struct {
	ID              string    `bson:"id" json:"id"`
	FirebaseUID     string    `bson:"firebaseUid" json:"firebaseUid"`
	Email           string    `bson:"email" json:"email"`
	Name            string    `bson:"name" json:"name"`
	StripeAccountID string    `bson:"stripeAccountId,omitempty" json:"stripeAccountId,omitempty"`
	MollieProfileID string    `bson:"mollieProfileId,omitempty" json:"mollieProfileId,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// UpdateMerchantRequest carries the mutable merchant profile fields.
type UpdateMerchantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}
