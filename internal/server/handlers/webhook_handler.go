package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agrisms/internal/domain/models"
	service "github.com/mamadbah2/agrisms/internal/service/sms"
)

const defaultStatsHours = 24

// WebhookHandler handles Africa's Talking callbacks and operator endpoints.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// ReceiveSMS ingests incoming SMS callbacks. Both form and JSON bodies are accepted.
func (h *WebhookHandler) ReceiveSMS(c *gin.Context) {
	var payload models.InboundSMSPayload
	if err := c.ShouldBind(&payload); err != nil {
		h.logger.Warn("invalid sms payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.svc.HandleInbound(c.Request.Context(), payload.Normalize())
	switch {
	case errors.Is(err, service.ErrMissingFields):
		h.logger.Warn("sms payload missing fields", zap.String("content_type", c.ContentType()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields (from/phoneNumber or text)"})
		return
	case err != nil:
		h.logger.Error("failed processing sms", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process sms"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ReceiveDeliveryReport records delivery report callbacks.
func (h *WebhookHandler) ReceiveDeliveryReport(c *gin.Context) {
	var report models.DeliveryReport
	if err := c.ShouldBind(&report); err != nil {
		h.logger.Warn("invalid delivery report payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := h.svc.HandleDeliveryReport(c.Request.Context(), report)
	switch {
	case errors.Is(err, service.ErrInvalidDeliveryReport):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("failed storing delivery report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store delivery report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}

// DeliveryStats summarizes delivery reports over the last ?hours= hours (default 24).
func (h *WebhookHandler) DeliveryStats(c *gin.Context) {
	hours := defaultStatsHours
	if raw := c.Query("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = n
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	stats, err := h.svc.DeliveryStats(c.Request.Context(), since)
	switch {
	case errors.Is(err, service.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "delivery stats require MongoDB"})
		return
	case err != nil:
		h.logger.Error("failed computing delivery stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since":     stats.Since,
		"total":     stats.Total,
		"by_status": stats.ByStatus,
		"delivered": stats.Delivered(),
		"failed":    stats.Failed(),
		"inbound":   stats.Inbound,
		"invalid":   stats.Invalid,
	})
}

// SendMessage allows sending outbound notifications.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid outbound payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}

// Balance reports the SMS account balance.
func (h *WebhookHandler) Balance(c *gin.Context) {
	balance, err := h.svc.Balance(c.Request.Context())
	if err != nil {
		h.logger.Error("failed fetching balance", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance.Raw, "amount": balance.Amount, "currency": balance.Currency})
}
