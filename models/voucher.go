package models

import "time"

// VoucherStatus is the redemption state of a voucher. It is distinct from
// the payment state tracked in the ledger: a voucher only ever moves
// forward from issued to redeemed.
type VoucherStatus string

const (
	VoucherIssued   VoucherStatus = "issued"
	VoucherRedeemed VoucherStatus = "redeemed"
)

// Voucher is a redeemable value entitlement sold through the platform.
// Code, amount and recipient are immutable once issued.
type Voucher struct {
	Code           string        `bson:"code" json:"code"`
	AmountCents    int64         `bson:"amountCents" json:"amountCents"`
	Currency       string        `bson:"currency" json:"currency"`
	RecipientEmail string        `bson:"recipientEmail" json:"recipientEmail"`
	Message        string        `bson:"message,omitempty" json:"message,omitempty"`
	MerchantID     string        `bson:"merchantId,omitempty" json:"merchantId,omitempty"`
	Status         VoucherStatus `bson:"status" json:"status"`
	CreatedAt      time.Time     `bson:"createdAt" json:"createdAt"`
	RedeemedAt     *time.Time    `bson:"redeemedAt,omitempty" json:"redeemedAt,omitempty"`
}

// IssueVoucherRequest is the payload for creating a voucher. The amount is
// a decimal string ("50.00") so clients never deal in cents.
type IssueVoucherRequest struct {
	Amount         string `json:"amount" binding:"required"`
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
	Message        string `json:"message"`
	MerchantID     string `json:"merchantId"`
}
