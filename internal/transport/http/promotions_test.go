package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	promotionsmemory "github.com/commercegrid/backoffice/internal/domains/promotions/adapters/memory"
	promotionsapp "github.com/commercegrid/backoffice/internal/domains/promotions/application"
	promotionsdomain "github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	sharederrors "github.com/commercegrid/backoffice/internal/shared/errors"
)

func newPromotionsRouter(t *testing.T) (*gin.Engine, *promotionsmemory.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := promotionsmemory.NewRepository()
	return NewRouter(Services{Promotions: promotionsapp.NewService(repo)}), repo
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRedeemCouponEndpoint_ConsumesUsage(t *testing.T) {
	router, repo := newPromotionsRouter(t)
	now := time.Now().UTC()
	coupon, err := promotionsdomain.NewCoupon("SAVE10", promotionsdomain.DiscountPercentage,
		decimal.NewFromInt(10), decimal.Zero, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)
	_, err = repo.SaveCoupon(context.Background(), coupon)
	require.NoError(t, err)

	rec := postJSON(t, router, "/v1/promotions/coupons/redeem", gin.H{"code": "SAVE10", "orderAmount": "100.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "10.00", resp["discountAmount"])

	stored, err := repo.CouponByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.UsedCount)
}

func TestRedeemCouponEndpoint_ExhaustedCouponIsRejected(t *testing.T) {
	router, repo := newPromotionsRouter(t)
	now := time.Now().UTC()
	coupon, err := promotionsdomain.NewCoupon("ONCE", promotionsdomain.DiscountFixed,
		decimal.NewFromInt(5), decimal.Zero, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)
	coupon.UsedCount = 1
	_, err = repo.SaveCoupon(context.Background(), coupon)
	require.NoError(t, err)

	rec := postJSON(t, router, "/v1/promotions/coupons/redeem", gin.H{"code": "ONCE", "orderAmount": "100.00"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, sharederrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))

	stored, err := repo.CouponByCode(context.Background(), "ONCE")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stored.UsedCount, "a rejected redemption must not consume usage")
}

func TestQuoteCouponEndpoint_DoesNotConsumeUsage(t *testing.T) {
	router, repo := newPromotionsRouter(t)
	now := time.Now().UTC()
	coupon, err := promotionsdomain.NewCoupon("SAVE10", promotionsdomain.DiscountPercentage,
		decimal.NewFromInt(10), decimal.Zero, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)
	_, err = repo.SaveCoupon(context.Background(), coupon)
	require.NoError(t, err)

	rec := postJSON(t, router, "/v1/promotions/coupons/quote", gin.H{"code": "SAVE10", "orderAmount": "100.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := repo.CouponByCode(context.Background(), "SAVE10")
	require.NoError(t, err)
	assert.Zero(t, stored.UsedCount)
}
