package handlers

import (
	"net/http"
	"time"

	"gutschein/config"
	ledgerRepo "gutschein/database/repository/ledger"
	voucherRepo "gutschein/database/repository/voucher"
	"gutschein/models"
	"gutschein/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AdminHandler serves the operator console: login, the review queue of
// flagged ledger records, and manual resolution of vouchers.
type AdminHandler struct {
	Ledger   ledgerRepo.LedgerRepository
	Vouchers voucherRepo.VoucherRepository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(lr ledgerRepo.LedgerRepository, vr voucherRepo.VoucherRepository) *AdminHandler {
	return &AdminHandler{Ledger: lr, Vouchers: vr}
}

type adminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminLoginHandler checks the configured operator credentials and issues
// a day-long token.
func (ah *AdminHandler) AdminLoginHandler(c *gin.Context) {
	logger := getLogger(c)

	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if req.Email != config.AppConfig.AdminEmail ||
		bcrypt.CompareHashAndPassword([]byte(config.AppConfig.AdminPasswordHash), []byte(req.Password)) != nil {
		logger.Warn("admin login rejected", zap.String("email", req.Email))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := utils.GenerateAdminToken(req.Email, 24*time.Hour)
	if err != nil {
		logger.Error("failed to issue admin token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ListFlaggedRecordsHandler returns ledger records waiting for operator
// review: orphans, amount mismatches and duplicate payments.
func (ah *AdminHandler) ListFlaggedRecordsHandler(c *gin.Context) {
	logger := getLogger(c)

	records, err := ah.Ledger.FindFlagged(c.Request.Context(), 200)
	if err != nil {
		logger.Error("failed to list flagged records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list flagged records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetLedgerRecordHandler fetches one record by provider and external id.
func (ah *AdminHandler) GetLedgerRecordHandler(c *gin.Context) {
	logger := getLogger(c)
	provider := models.PaymentProvider(c.Param("provider"))
	externalID := c.Param("id")

	rec, err := ah.Ledger.Get(c.Request.Context(), provider, externalID)
	if err != nil {
		logger.Error("failed to load ledger record",
			zap.String("provider", string(provider)),
			zap.String("externalPaymentId", externalID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load record"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// RedeemVoucherHandler manually marks a voucher redeemed, the resolution
// for review-queue cases where the money arrived but the automatic
// transition could not (e.g. an amount mismatch the operator accepts).
func (ah *AdminHandler) RedeemVoucherHandler(c *gin.Context) {
	logger := getLogger(c)
	code := c.Param("code")

	result, err := ah.Vouchers.Transition(c.Request.Context(), code, models.VoucherIssued, models.VoucherRedeemed)
	if err != nil {
		logger.Error("manual redemption failed", zap.String("voucherCode", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to redeem voucher"})
		return
	}

	switch result {
	case voucherRepo.TransitionApplied:
		logger.Info("voucher manually redeemed",
			zap.String("voucherCode", code),
			zap.String("adminEmail", c.GetString("adminEmail")))
		c.JSON(http.StatusOK, gin.H{"redeemed": true})
	case voucherRepo.TransitionAlreadyDone:
		c.JSON(http.StatusOK, gin.H{"redeemed": false, "message": "voucher already redeemed"})
	case voucherRepo.TransitionNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "voucher not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected transition result"})
	}
}
