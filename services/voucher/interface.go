package voucher

import (
	"context"

	"gutschein/models"
)

// VoucherService issues and reads vouchers. Redemption is not here: only
// the reconciliation core may transition a voucher.
type VoucherService interface {
	// Issue creates a voucher with a server-generated code and mails it to
	// the recipient.
	Issue(ctx context.Context, req models.IssueVoucherRequest) (*models.Voucher, error)
	// GetByCode returns a voucher, or (nil, nil) when unknown.
	GetByCode(ctx context.Context, code string) (*models.Voucher, error)
	// ListByMerchant returns all vouchers sold by one merchant.
	ListByMerchant(ctx context.Context, merchantID string) ([]models.Voucher, error)
}
