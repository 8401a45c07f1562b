package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	paymentsdomain "github.com/commercegrid/backoffice/internal/domains/payments/domain"
)

const (
	defaultStaleCutoff = 24 * time.Hour
	defaultAuthExpiry  = 72 * time.Hour
)

type transactionRequest struct {
	OrderID              int64  `json:"orderId" binding:"required"`
	Type                 string `json:"type" binding:"required"`
	Status               string `json:"status" binding:"required"`
	Amount               string `json:"amount" binding:"required"`
	GatewayTransactionID string `json:"gatewayTransactionId"`
}

type transactionResponse struct {
	ID                   int64  `json:"id"`
	OrderID              int64  `json:"orderId"`
	Type                 string `json:"type"`
	Status               string `json:"status"`
	Amount               string `json:"amount"`
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
	CreatedAt            string `json:"createdAt"`
}

type refundRequest struct {
	OrderID     int64  `json:"orderId" binding:"required"`
	TotalAmount string `json:"totalAmount" binding:"required"`
	RequestedBy string `json:"requestedBy" binding:"required"`
}

type refundResolveRequest struct {
	Status string `json:"status" binding:"required"`
}

type refundResponse struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"orderId"`
	TotalAmount string `json:"totalAmount"`
	Status      string `json:"status"`
	RequestedBy string `json:"requestedBy"`
}

func toTransactionResponse(tx *paymentsdomain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                   tx.ID,
		OrderID:              tx.OrderID,
		Type:                 string(tx.Type),
		Status:               string(tx.Status),
		Amount:               tx.Amount.StringFixed(2),
		GatewayTransactionID: tx.GatewayTransactionID,
		CreatedAt:            tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toRefundResponse(refund *paymentsdomain.Refund) refundResponse {
	return refundResponse{
		ID:          refund.ID,
		OrderID:     refund.OrderID,
		TotalAmount: refund.TotalAmount.StringFixed(2),
		Status:      string(refund.Status),
		RequestedBy: refund.RequestedBy,
	}
}

func (h *handlers) recordTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"amount": "must be a decimal amount"})
		return
	}
	tx, err := paymentsdomain.NewTransaction(
		req.OrderID,
		paymentsdomain.TransactionType(req.Type),
		paymentsdomain.TransactionStatus(req.Status),
		amount,
		req.GatewayTransactionID,
	)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	saved, err := h.services.Payments.RecordTransaction(c.Request.Context(), tx)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTransactionResponse(saved))
}

// stalePending lists PENDING transactions older than the cutoff. These are a
// review report; cancellation stays with the payment workflow.
func (h *handlers) stalePending(c *gin.Context) {
	cutoff := time.Now().UTC().Add(-h.durationFromQuery(c, "olderThanHours", defaultStaleCutoff))
	transactions, err := h.services.Payments.StalePending(c.Request.Context(), cutoff)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

func (h *handlers) expiredAuthorizations(c *gin.Context) {
	expiry := time.Now().UTC().Add(-h.durationFromQuery(c, "olderThanHours", defaultAuthExpiry))
	transactions, err := h.services.Payments.ExpiredAuthorizations(c.Request.Context(), expiry)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

func (h *handlers) requestRefund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.TotalAmount)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"totalAmount": "must be a decimal amount"})
		return
	}
	refund, err := paymentsdomain.NewRefund(req.OrderID, amount, req.RequestedBy)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	saved, err := h.services.Payments.RequestRefund(c.Request.Context(), refund)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRefundResponse(saved))
}

func (h *handlers) resolveRefund(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.ValidationFailed(c, map[string]string{"id": "must be a positive integer"})
		return
	}
	var req refundResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	resolved, err := h.services.Payments.ResolveRefund(c.Request.Context(), id, paymentsdomain.RefundStatus(req.Status))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRefundResponse(resolved))
}

func (h *handlers) durationFromQuery(c *gin.Context, key string, fallback time.Duration) time.Duration {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	hours, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || hours <= 0 {
		return fallback
	}
	return time.Duration(hours) * time.Hour
}

func toTransactionResponses(transactions []*paymentsdomain.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, toTransactionResponse(tx))
	}
	return out
}
