package handlers

import (
	"net/http"

	"gutschein/models"
	"gutschein/services/merchant"
	"gutschein/services/voucher"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MerchantHandler serves the authenticated merchant area. The Firebase
// middleware has already put firebaseUid and email on the context.
type MerchantHandler struct {
	MerchantService merchant.MerchantService
	VoucherService  voucher.VoucherService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(ms merchant.MerchantService, vs voucher.VoucherService) *MerchantHandler {
	return &MerchantHandler{MerchantService: ms, VoucherService: vs}
}

func (mh *MerchantHandler) currentMerchant(c *gin.Context) (*models.Merchant, bool) {
	uid := c.GetString("firebaseUid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant identity missing"})
		return nil, false
	}

	m, err := mh.MerchantService.GetOrCreate(c.Request.Context(), uid, c.GetString("email"))
	if err != nil {
		getLogger(c).Error("failed to resolve merchant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load merchant"})
		return nil, false
	}
	return m, true
}

// GetMerchantHandler returns the caller's merchant profile, creating it on
// first login.
func (mh *MerchantHandler) GetMerchantHandler(c *gin.Context) {
	m, ok := mh.currentMerchant(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, m)
}

// UpdateMerchantHandler applies profile edits.
func (mh *MerchantHandler) UpdateMerchantHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.UpdateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	uid := c.GetString("firebaseUid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant identity missing"})
		return
	}

	m, err := mh.MerchantService.Update(c.Request.Context(), uid, req)
	if err != nil {
		logger.Error("failed to update merchant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update merchant"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// ConnectStripeHandler starts Stripe express onboarding and returns the
// hosted URL to redirect the merchant to.
func (mh *MerchantHandler) ConnectStripeHandler(c *gin.Context) {
	logger := getLogger(c)

	uid := c.GetString("firebaseUid")
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant identity missing"})
		return
	}

	url, err := mh.MerchantService.ConnectStripe(c.Request.Context(), uid)
	if err != nil {
		logger.Error("failed to connect stripe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to connect stripe account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"onboardingUrl": url})
}

// ListMerchantVouchersHandler returns the vouchers sold by the caller.
func (mh *MerchantHandler) ListMerchantVouchersHandler(c *gin.Context) {
	m, ok := mh.currentMerchant(c)
	if !ok {
		return
	}

	vouchers, err := mh.VoucherService.ListByMerchant(c.Request.Context(), m.ID)
	if err != nil {
		getLogger(c).Error("failed to list vouchers",
			zap.String("merchantId", m.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list vouchers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": vouchers})
}
