package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	inventorydomain "github.com/commercegrid/backoffice/internal/domains/inventory/domain"
)

type availabilityResponse struct {
	ProductID   int64  `json:"productId"`
	VariantID   *int64 `json:"variantId,omitempty"`
	WarehouseID *int64 `json:"warehouseId,omitempty"`
	Available   int64  `json:"available"`
}

type inventoryItemResponse struct {
	ID           int64  `json:"id"`
	ProductID    int64  `json:"productId"`
	VariantID    *int64 `json:"variantId,omitempty"`
	WarehouseID  int64  `json:"warehouseId"`
	OnHand       int64  `json:"quantityOnHand"`
	Reserved     int64  `json:"quantityReserved"`
	Available    int64  `json:"available"`
	ReorderPoint int64  `json:"reorderPoint"`
	SafetyStock  int64  `json:"safetyStock"`
	Status       string `json:"status"`
}

type receiveStockRequest struct {
	ProductID    int64  `json:"productId" binding:"required"`
	VariantID    *int64 `json:"variantId"`
	WarehouseID  int64  `json:"warehouseId" binding:"required"`
	Quantity     int64  `json:"quantity" binding:"required"`
	ReorderPoint int64  `json:"reorderPoint"`
	SafetyStock  int64  `json:"safetyStock"`
}

func toItemResponse(item *inventorydomain.Item) inventoryItemResponse {
	return inventoryItemResponse{
		ID:           item.ID,
		ProductID:    item.ProductID,
		VariantID:    item.VariantID,
		WarehouseID:  item.WarehouseID,
		OnHand:       item.OnHand,
		Reserved:     item.Reserved,
		Available:    item.Available(),
		ReorderPoint: item.ReorderPoint,
		SafetyStock:  item.SafetyStock,
		Status:       string(item.Status),
	}
}

func (h *handlers) availability(c *gin.Context) {
	key, ok := h.stockKeyFromQuery(c)
	if !ok {
		return
	}
	available, err := h.services.Inventory.ComputeAvailability(c.Request.Context(), key)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{
		ProductID:   key.ProductID,
		VariantID:   key.VariantID,
		WarehouseID: key.WarehouseID,
		Available:   available,
	})
}

func (h *handlers) itemsNeedingReorder(c *gin.Context) {
	items, err := h.services.Inventory.ItemsNeedingReorder(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponses(items))
}

func (h *handlers) itemsBelowSafetyStock(c *gin.Context) {
	items, err := h.services.Inventory.ItemsBelowSafetyStock(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toItemResponses(items))
}

func (h *handlers) receiveStock(c *gin.Context) {
	var req receiveStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	item, err := inventorydomain.NewItem(req.ProductID, req.VariantID, req.WarehouseID, req.Quantity, req.ReorderPoint, req.SafetyStock)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	saved, err := h.services.Inventory.ReceiveStock(c.Request.Context(), item)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toItemResponse(saved))
}

func (h *handlers) stockKeyFromQuery(c *gin.Context) (inventorydomain.StockKey, bool) {
	productID, err := strconv.ParseInt(c.Query("productId"), 10, 64)
	if err != nil || productID <= 0 {
		h.responder.ValidationFailed(c, map[string]string{"productId": "must be a positive integer"})
		return inventorydomain.StockKey{}, false
	}
	key := inventorydomain.StockKey{ProductID: productID}
	if raw := c.Query("variantId"); raw != "" {
		variantID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.responder.ValidationFailed(c, map[string]string{"variantId": "must be an integer"})
			return inventorydomain.StockKey{}, false
		}
		key.VariantID = &variantID
	}
	if raw := c.Query("warehouseId"); raw != "" {
		warehouseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.responder.ValidationFailed(c, map[string]string{"warehouseId": "must be an integer"})
			return inventorydomain.StockKey{}, false
		}
		key.WarehouseID = &warehouseID
	}
	return key, true
}

func toItemResponses(items []*inventorydomain.Item) []inventoryItemResponse {
	out := make([]inventoryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}
