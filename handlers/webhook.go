package handlers

import (
	"errors"
	"net/http"

	"gutschein/services/reconcile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler receives provider callbacks and hands them to the
// reconciliation pipeline.
type WebhookHandler struct {
	Reconciler reconcile.ReconcileService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(rs reconcile.ReconcileService) *WebhookHandler {
	return &WebhookHandler{Reconciler: rs}
}

// HandleProviderWebhook maps pipeline outcomes onto provider retry
// semantics: 4xx tells the provider to stop, 5xx tells it to redeliver,
// and 200 means the delivery is settled, including duplicates and
// payloads we rejected after inspection.
func (wh *WebhookHandler) HandleProviderWebhook(c *gin.Context) {
	logger := getLogger(c)
	provider := c.Param("provider")

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read request body"})
		return
	}

	ack, err := wh.Reconciler.HandleWebhook(c.Request.Context(), provider, body, c.Request.Header)
	if err != nil {
		var sigErr *reconcile.SignatureError
		var malformedErr *reconcile.MalformedPayloadError
		var unknownErr *reconcile.UnknownProviderError
		var confirmErr *reconcile.ConfirmationError
		var persistErr *reconcile.PersistenceError

		switch {
		case errors.As(err, &sigErr):
			logger.Warn("webhook rejected", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		case errors.As(err, &malformedErr):
			logger.Warn("webhook rejected", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
		case errors.As(err, &unknownErr):
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		case errors.As(err, &confirmErr):
			logger.Error("webhook confirmation failed", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment confirmation unavailable"})
		case errors.As(err, &persistErr):
			logger.Error("webhook persistence failed", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
		default:
			logger.Error("webhook processing failed", zap.String("provider", provider), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, ack)
}
