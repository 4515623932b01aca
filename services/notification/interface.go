package notification

import (
	"context"

	"gutschein/models"
)

// Task type names shared between the enqueuing service and the worker.
const (
	TypeVoucherIssued   = "email:voucher_issued"
	TypeVoucherRedeemed = "email:voucher_redeemed"
)

// EmailTaskPayload is the asynq payload for both mail tasks.
type EmailTaskPayload struct {
	VoucherCode string `json:"voucherCode"`
}

// NotificationService is the fire-and-forget mail sink. Callers log
// failures but never let them block or reverse a state transition.
type NotificationService interface {
	SendVoucherIssued(ctx context.Context, v *models.Voucher) error
	SendVoucherRedeemedNotice(ctx context.Context, voucherCode string) error
}
