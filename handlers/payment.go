package handlers

import (
	"errors"
	"net/http"

	"gutschein/models"
	"gutschein/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PaymentHandler starts provider checkouts for issued vouchers.
type PaymentHandler struct {
	CheckoutService payment.CheckoutService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(cs payment.CheckoutService) *PaymentHandler {
	return &PaymentHandler{CheckoutService: cs}
}

type checkoutRequest struct {
	VoucherCode string `json:"voucherCode" binding:"required"`
}

// CreateCheckoutHandler opens a payment with the provider named in the
// path and returns what the storefront needs to continue.
func (ph *PaymentHandler) CreateCheckoutHandler(c *gin.Context) {
	logger := getLogger(c)
	provider := models.PaymentProvider(c.Param("provider"))

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	var session *payment.CheckoutSession
	var err error
	switch provider {
	case models.ProviderStripe:
		session, err = ph.CheckoutService.CreateStripeIntent(c.Request.Context(), req.VoucherCode)
	case models.ProviderMollie:
		session, err = ph.CheckoutService.CreateMolliePayment(c.Request.Context(), req.VoucherCode)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown payment provider"})
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, payment.ErrVoucherNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "voucher not found"})
		case errors.Is(err, payment.ErrVoucherNotPayable):
			c.JSON(http.StatusConflict, gin.H{"error": "voucher is not payable"})
		default:
			logger.Error("failed to create checkout",
				zap.String("provider", string(provider)),
				zap.String("voucherCode", req.VoucherCode),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout"})
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}
