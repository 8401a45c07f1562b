// Package http exposes the back-office core operations over a gin router.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	catalogports "github.com/commercegrid/backoffice/internal/domains/catalog/ports"
	inventoryports "github.com/commercegrid/backoffice/internal/domains/inventory/ports"
	ordersports "github.com/commercegrid/backoffice/internal/domains/orders/ports"
	paymentsports "github.com/commercegrid/backoffice/internal/domains/payments/ports"
	promotionsports "github.com/commercegrid/backoffice/internal/domains/promotions/ports"
	sharederrors "github.com/commercegrid/backoffice/internal/shared/errors"
)

// Services groups the application services the router exposes.
type Services struct {
	Catalog    catalogports.Service
	Inventory  inventoryports.Service
	Promotions promotionsports.Service
	Payments   paymentsports.Service
	Orders     ordersports.Service
	// Confirmations runs order confirmation, inline or durable.
	Confirmations ordersports.WorkflowOrchestrator
}

// NewRouter builds the gin engine with all back-office routes registered.
func NewRouter(services Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	responder := sharederrors.NewChainedResponder("", domainErrorMapper)
	h := &handlers{services: services, responder: responder}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		products := v1.Group("/products")
		{
			products.POST("", h.saveProduct)
			products.GET("", h.listProducts)
			products.GET("/:id", h.getProduct)
			products.DELETE("/:id", h.deleteProduct)
		}

		inventory := v1.Group("/inventory")
		{
			inventory.GET("/availability", h.availability)
			inventory.GET("/reorder", h.itemsNeedingReorder)
			inventory.GET("/safety-stock", h.itemsBelowSafetyStock)
			inventory.POST("/receipts", h.receiveStock)
		}

		promotions := v1.Group("/promotions")
		{
			promotions.GET("/discounts", h.applicableDiscounts)
			promotions.GET("/evaluate", h.evaluateDiscount)
			promotions.POST("/coupons/quote", h.quoteCoupon)
			promotions.POST("/coupons/redeem", h.redeemCoupon)
		}

		orders := v1.Group("/orders")
		{
			orders.POST("/price", h.priceOrder)
			orders.POST("", h.confirmOrder)
			orders.GET("/:id", h.getOrder)
			orders.GET("/:id/reconciliation", h.reconcileOrder)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("/transactions", h.recordTransaction)
			payments.GET("/stale-pending", h.stalePending)
			payments.GET("/expired-authorizations", h.expiredAuthorizations)
			payments.POST("/refunds", h.requestRefund)
			payments.POST("/refunds/:id/resolve", h.resolveRefund)
		}
	}
	return router
}

type handlers struct {
	services  Services
	responder *sharederrors.ChainedResponder
}
