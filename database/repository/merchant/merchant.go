package merchantRepo

import (
	"context"

	"gutschein/models"
)

// MerchantRepository defines methods for merchant data access.
type MerchantRepository interface {
	// GetByFirebaseUID retrieves a merchant by their Firebase UID.
	// Returns (nil, nil) when none exists yet.
	GetByFirebaseUID(ctx context.Context, uid string) (*models.Merchant, error)
	// Create inserts a new merchant record.
	Create(ctx context.Context, m *models.Merchant) error
	// Update modifies an existing merchant record.
	Update(ctx context.Context, m *models.Merchant) error
}
