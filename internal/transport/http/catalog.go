package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	catalogdomain "github.com/commercegrid/backoffice/internal/domains/catalog/domain"
)

type productRequest struct {
	ID     int64  `json:"id"`
	SKU    string `json:"sku" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Price  string `json:"price" binding:"required"`
	Status string `json:"status"`
}

type productResponse struct {
	ID     int64  `json:"id"`
	SKU    string `json:"sku"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Status string `json:"status"`
}

func toProductResponse(product *catalogdomain.Product) productResponse {
	return productResponse{
		ID:     product.ID,
		SKU:    product.SKU,
		Name:   product.Name,
		Price:  product.Price.StringFixed(2),
		Status: string(product.Status),
	}
}

func (h *handlers) saveProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.BadRequest(c, err.Error())
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"price": "must be a decimal amount"})
		return
	}
	product, err := catalogdomain.NewProduct(req.ID, req.SKU, req.Name, price, catalogdomain.Status(req.Status))
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	saved, err := h.services.Catalog.SaveProduct(c.Request.Context(), product)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(saved))
}

func (h *handlers) getProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"id": "must be an integer"})
		return
	}
	product, err := h.services.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.services.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.responder.RespondError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, product := range products {
		out = append(out, toProductResponse(product))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) deleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.responder.ValidationFailed(c, map[string]string{"id": "must be an integer"})
		return
	}
	if err := h.services.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.responder.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
