package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ordersdomain "github.com/commercegrid/backoffice/internal/domains/orders/domain"
)

type orderLineRequest struct {
	ProductID int64  `json:"productId" binding:"required"`
	VariantID *int64 `json:"variantId"`
	Quantity  int64  `json:"quantity" binding:"required"`
}

type orderDraftRequest struct {
	Lines      []orderLineRequest `json:"lines" binding:"required"`
	CouponCode string             `json:"couponCode"`
}

type pricingResponse struct {
	Subtotal        string `json:"subtotal"`
	ProductDiscount string `json:"productDiscount"`
	CouponDiscount  string `json:"couponDiscount"`
	DiscountAmount  string `json:"discountAmount"`
	Total           string `json:"total"`
}

type orderLineResponse struct {
	ProductID int64  `json:"productId"`
	VariantID *int64 `json:"variantId,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type orderResponse struct {
	ID             int64               `json:"id"`
	Status         string              `json:"status"`
	Lines          []orderLineResponse `json:"lines"`
	CouponCode     string              `json:"couponCode,omitempty"`
	Subtotal       string              `json:"subtotal"`
	DiscountAmount string              `json:"discountAmount"`
	Total          string              `json:"total"`
}

type reconcileResponse struct {
	OrderID        int64  `json:"orderId"`
	NetPaid        string `json:"netPaid"`
	SaleAmount     string `json:"saleAmount"`
	RefundedAmount string `json:"refundedAmount"`
	PendingFlag    bool   `json:"pendingFlag"`
}

func (r orderDraftRequest) toDraft(idempotencyKey string) ordersdomain.Draft {
	lines := make([]ordersdomain.Line, 0, len(r.Lines))
	for _, line := range r.Lines {
		lines = append(lines, ordersdomain.Line{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
	}
	return ordersdomain.Draft{
		Lines:          lines,
		CouponCode:     r.CouponCode,
		IdempotencyKey: idempotencyKey,
	}
}

func toOrderResponse(order *ordersdomain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineResponse{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
		})
	}
	return orderResponse{
		ID:             order.ID,
		Status:         string(order.Status),
		Lines:          lines,
		CouponCode:     order.CouponCode,
		Subtotal:       order.Subtotal.StringFixed(2),
		DiscountAmount: order.DiscountAmount.StringFixed(2),
		Total:          order.Total.StringFixed(2),
	}
}

func (h *handlers) priceOrder(c *gin.Context) {
	var req orderDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	pricing, err := h.services.Orders.PriceOrder(c.Request.Context(), req.toDraft(""))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pricingResponse{
		Subtotal:        pricing.Subtotal.StringFixed(2),
		ProductDiscount: pricing.ProductDiscount.StringFixed(2),
		CouponDiscount:  pricing.CouponDiscount.StringFixed(2),
		DiscountAmount:  pricing.DiscountAmount.StringFixed(2),
		Total:           pricing.Total.StringFixed(2),
	})
}

func (h *handlers) confirmOrder(c *gin.Context) {
	var req orderDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	draft := req.toDraft(c.GetHeader("Idempotency-Key"))
	order, err := h.services.Confirmations.ConfirmOrder(c.Request.Context(), draft)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *handlers) getOrder(c *gin.Context) {
	id, ok := h.orderIDFromPath(c)
	if !ok {
		return
	}
	order, err := h.services.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *handlers) reconcileOrder(c *gin.Context) {
	id, ok := h.orderIDFromPath(c)
	if !ok {
		return
	}
	result, err := h.services.Orders.ReconcileOrder(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reconcileResponse{
		OrderID:        result.OrderID,
		NetPaid:        result.NetPaid.StringFixed(2),
		SaleAmount:     result.SaleAmount.StringFixed(2),
		RefundedAmount: result.RefundedAmount.StringFixed(2),
		PendingFlag:    result.PendingFlag,
	})
}

func (h *handlers) orderIDFromPath(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.responder.ValidationFailed(c, map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}
