package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct the routes
// package wires from.
type HandlerBundle struct {
	// Webhook endpoints
	ProviderWebhookHandler gin.HandlerFunc

	// Voucher endpoints
	IssueVoucherHandler gin.HandlerFunc
	GetVoucherHandler   gin.HandlerFunc

	// Checkout endpoints
	CreateCheckoutHandler gin.HandlerFunc

	// Merchant endpoints
	GetMerchantHandler          gin.HandlerFunc
	UpdateMerchantHandler       gin.HandlerFunc
	ConnectStripeHandler        gin.HandlerFunc
	ListMerchantVouchersHandler gin.HandlerFunc

	// Admin endpoints
	AdminLoginHandler         gin.HandlerFunc
	ListFlaggedRecordsHandler gin.HandlerFunc
	GetLedgerRecordHandler    gin.HandlerFunc
	AdminRedeemVoucherHandler gin.HandlerFunc
}
