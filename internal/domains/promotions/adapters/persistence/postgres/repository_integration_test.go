//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	"github.com/commercegrid/backoffice/internal/domains/promotions/ports"
	"github.com/commercegrid/backoffice/internal/platform/migrations"
)

func setupPromotionsPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("backoffice_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func TestRepository_SaveAndGetCoupon(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPromotionsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	coupon, err := domain.NewCoupon("save10", domain.DiscountPercentage,
		decimal.NewFromInt(10), decimal.NewFromInt(50), now.Add(-time.Hour), now.Add(time.Hour), 5)
	require.NoError(t, err)
	coupon.ProductIDs = []int64{1, 2}

	saved, err := repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", saved.Code)
	assert.Equal(t, []int64{1, 2}, saved.ProductIDs)

	fetched, err := repo.CouponByCode(ctx, "save10")
	require.NoError(t, err)
	assert.EqualValues(t, 5, fetched.UsageLimit)

	_, err = repo.CouponByCode(ctx, "MISSING")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_RedeemCoupon_ConcurrentLastUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPromotionsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	coupon, err := domain.NewCoupon("LAST1", domain.DiscountFixed,
		decimal.NewFromInt(5), decimal.Zero, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)
	_, err = repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.RedeemCoupon(ctx, "LAST1", now)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrUsageLimitReached)
		}
	}
	assert.Equal(t, 1, successes, "exactly one redemption of the last usage may win")

	fetched, err := repo.CouponByCode(ctx, "LAST1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, fetched.UsedCount)
}

func TestRepository_ReleaseCouponUsage_RestoresLastUsage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPromotionsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	coupon, err := domain.NewCoupon("ONCE", domain.DiscountFixed,
		decimal.NewFromInt(5), decimal.Zero, now.Add(-time.Hour), now.Add(time.Hour), 1)
	require.NoError(t, err)
	_, err = repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)

	_, err = repo.RedeemCoupon(ctx, "ONCE", now)
	require.NoError(t, err)
	_, err = repo.RedeemCoupon(ctx, "ONCE", now)
	require.ErrorIs(t, err, domain.ErrUsageLimitReached)

	require.NoError(t, repo.ReleaseCouponUsage(ctx, "ONCE"))
	redeemed, err := repo.RedeemCoupon(ctx, "ONCE", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, redeemed.UsedCount)

	// Floors at zero once every usage has been handed back.
	require.NoError(t, repo.ReleaseCouponUsage(ctx, "ONCE"))
	require.NoError(t, repo.ReleaseCouponUsage(ctx, "ONCE"))
	fetched, err := repo.CouponByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Zero(t, fetched.UsedCount)
}

func TestRepository_RedeemCoupon_ClassifiesInactive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPromotionsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	coupon, err := domain.NewCoupon("FUTURE", domain.DiscountFixed,
		decimal.NewFromInt(5), decimal.Zero, now.Add(24*time.Hour), now.Add(48*time.Hour), 0)
	require.NoError(t, err)
	_, err = repo.SaveCoupon(ctx, coupon)
	require.NoError(t, err)

	_, err = repo.RedeemCoupon(ctx, "FUTURE", now)
	assert.ErrorIs(t, err, domain.ErrCouponInactive)
}

func TestRepository_ActiveCampaignDiscounts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupPromotionsPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	campaign, err := repo.SaveCampaign(ctx, &domain.Campaign{
		Name:        "Spring Sale",
		Status:      domain.CampaignActive,
		DisplayFrom: now.Add(-time.Hour),
		DisplayTo:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	paused, err := repo.SaveCampaign(ctx, &domain.Campaign{
		Name:        "Paused Sale",
		Status:      domain.CampaignPaused,
		DisplayFrom: now.Add(-time.Hour),
		DisplayTo:   now.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = repo.SaveCampaignDiscount(ctx, &domain.CampaignDiscount{
		CampaignID: campaign.ID, ProductID: 7, Type: domain.DiscountPercentage, Value: decimal.NewFromInt(15),
	})
	require.NoError(t, err)
	_, err = repo.SaveCampaignDiscount(ctx, &domain.CampaignDiscount{
		CampaignID: paused.ID, ProductID: 7, Type: domain.DiscountPercentage, Value: decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	discounts, err := repo.ActiveCampaignDiscounts(ctx, 7, now)
	require.NoError(t, err)
	require.Len(t, discounts, 1)
	assert.Equal(t, campaign.ID, discounts[0].CampaignID)
}
