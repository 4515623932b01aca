package handlers

import (
	"errors"
	"net/http"

	"gutschein/models"
	"gutschein/services/voucher"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VoucherHandler serves voucher purchase and lookup endpoints.
type VoucherHandler struct {
	VoucherService voucher.VoucherService
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(vs voucher.VoucherService) *VoucherHandler {
	return &VoucherHandler{VoucherService: vs}
}

// IssueVoucherHandler creates a new voucher and mails the code.
func (vh *VoucherHandler) IssueVoucherHandler(c *gin.Context) {
	logger := getLogger(c)

	var req models.IssueVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	v, err := vh.VoucherService.Issue(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, voucher.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("failed to issue voucher", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue voucher"})
		return
	}

	c.JSON(http.StatusCreated, v)
}

// GetVoucherHandler looks a voucher up by its code.
func (vh *VoucherHandler) GetVoucherHandler(c *gin.Context) {
	logger := getLogger(c)
	code := c.Param("code")

	v, err := vh.VoucherService.GetByCode(c.Request.Context(), code)
	if err != nil {
		logger.Error("failed to load voucher", zap.String("voucherCode", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load voucher"})
		return
	}
	if v == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "voucher not found"})
		return
	}
	c.JSON(http.StatusOK, v)
}
