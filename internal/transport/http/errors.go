package http

import (
	"errors"

	catalogdomain "github.com/commercegrid/backoffice/internal/domains/catalog/domain"
	catalogports "github.com/commercegrid/backoffice/internal/domains/catalog/ports"
	inventorydomain "github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	inventoryports "github.com/commercegrid/backoffice/internal/domains/inventory/ports"
	ordersdomain "github.com/commercegrid/backoffice/internal/domains/orders/domain"
	ordersports "github.com/commercegrid/backoffice/internal/domains/orders/ports"
	paymentsdomain "github.com/commercegrid/backoffice/internal/domains/payments/domain"
	paymentsports "github.com/commercegrid/backoffice/internal/domains/payments/ports"
	promotionsdomain "github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	promotionsports "github.com/commercegrid/backoffice/internal/domains/promotions/ports"
	sharederrors "github.com/commercegrid/backoffice/internal/shared/errors"
)

// domainErrorMapper translates domain sentinels into problem responses.
// Business rejections come back as 422s; integrity faults stay 500s because
// they require investigation, not a retried request.
func domainErrorMapper(err error) (sharederrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, catalogports.ErrNotFound),
		errors.Is(err, inventoryports.ErrNotFound),
		errors.Is(err, promotionsports.ErrNotFound),
		errors.Is(err, paymentsports.ErrNotFound),
		errors.Is(err, ordersports.ErrNotFound):
		return sharederrors.ErrNotFound.WithDetail(err.Error()), true

	case errors.Is(err, inventorydomain.ErrInsufficientStock),
		errors.Is(err, promotionsdomain.ErrCouponInactive),
		errors.Is(err, promotionsdomain.ErrUsageLimitReached),
		errors.Is(err, promotionsdomain.ErrBelowMinimumAmount):
		return sharederrors.ErrBusinessRejection.WithDetail(err.Error()), true

	case errors.Is(err, inventorydomain.ErrStockIntegrity),
		errors.Is(err, paymentsdomain.ErrNegativeNetPaid):
		return sharederrors.ErrIntegrityFault.WithDetail(err.Error()), true

	case errors.Is(err, catalogdomain.ErrInvalidSKU),
		errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrNegativePrice),
		errors.Is(err, catalogdomain.ErrInvalidStatus),
		errors.Is(err, inventorydomain.ErrInvalidProductID),
		errors.Is(err, inventorydomain.ErrInvalidWarehouseID),
		errors.Is(err, inventorydomain.ErrInvalidQuantity),
		errors.Is(err, inventorydomain.ErrReleaseExceedsHold),
		errors.Is(err, ordersdomain.ErrNoLines),
		errors.Is(err, ordersdomain.ErrInvalidProductID),
		errors.Is(err, ordersdomain.ErrInvalidQuantity),
		errors.Is(err, ordersdomain.ErrProductNotSellable),
		errors.Is(err, paymentsdomain.ErrInvalidOrderID),
		errors.Is(err, paymentsdomain.ErrInvalidAmount),
		errors.Is(err, paymentsdomain.ErrInvalidType),
		errors.Is(err, paymentsdomain.ErrInvalidStatus):
		return sharederrors.ErrValidation.WithDetail(err.Error()), true
	}
	return sharederrors.ProblemDetail{}, false
}
