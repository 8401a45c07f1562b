package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type discountQuoteResponse struct {
	ProductID int64  `json:"productId"`
	Amount    string `json:"amount"`
	Source    string `json:"source,omitempty"`
}

type couponQuoteRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount string `json:"orderAmount" binding:"required"`
}

type couponQuoteResponse struct {
	Code           string `json:"code"`
	DiscountAmount string `json:"discountAmount"`
}

type productDiscountResponse struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func (h *handlers) applicableDiscounts(c *gin.Context) {
	productID, ok := h.productIDFromQuery(c)
	if !ok {
		return
	}
	now := time.Now().UTC()
	discounts, err := h.services.Promotions.ApplicableDiscounts(c.Request.Context(), productID, now)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	campaignDiscounts, err := h.services.Promotions.ApplicableCampaignDiscounts(c.Request.Context(), productID, now)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	out := make([]productDiscountResponse, 0, len(discounts)+len(campaignDiscounts))
	for _, d := range discounts {
		out = append(out, productDiscountResponse{
			ID:     d.ID,
			Type:   string(d.Type),
			Value:  d.Value.StringFixed(2),
			Source: "product_discount",
		})
	}
	for _, d := range campaignDiscounts {
		out = append(out, productDiscountResponse{
			ID:     d.ID,
			Type:   string(d.Type),
			Value:  d.Value.StringFixed(2),
			Source: "campaign_discount",
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) evaluateDiscount(c *gin.Context) {
	productID, ok := h.productIDFromQuery(c)
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(c.Query("orderAmount"))
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"orderAmount": "must be a decimal amount"})
		return
	}
	quote, err := h.services.Promotions.EvaluateDiscount(c.Request.Context(), productID, amount, time.Now().UTC())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, discountQuoteResponse{
		ProductID: productID,
		Amount:    quote.Amount.StringFixed(2),
		Source:    quote.Source,
	})
}

// quoteCoupon previews a coupon against an order amount without consuming
// usage.
func (h *handlers) quoteCoupon(c *gin.Context) {
	var req couponQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.OrderAmount)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"orderAmount": "must be a decimal amount"})
		return
	}
	quote, err := h.services.Promotions.QuoteCoupon(c.Request.Context(), req.Code, amount, time.Now().UTC())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, couponQuoteResponse{
		Code:           quote.Code,
		DiscountAmount: quote.DiscountAmount.StringFixed(2),
	})
}

// redeemCoupon consumes one usage directly, for channels that settle orders
// outside this service. Orders placed here redeem through confirmation
// instead, which rolls the usage back if the order aborts.
func (h *handlers) redeemCoupon(c *gin.Context) {
	var req couponQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.OrderAmount)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"orderAmount": "must be a decimal amount"})
		return
	}
	redemption, err := h.services.Promotions.RedeemCoupon(c.Request.Context(), req.Code, amount, time.Now().UTC())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, couponQuoteResponse{
		Code:           redemption.Code,
		DiscountAmount: redemption.DiscountAmount.StringFixed(2),
	})
}

func (h *handlers) productIDFromQuery(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Query("productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.responder.ValidationFailed(c, map[string]string{"productId": "must be a positive integer"})
		return 0, false
	}
	return productID, true
}
