package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/commercegrid/backoffice/internal/domains/promotions/adapters/memory"
	"github.com/commercegrid/backoffice/internal/domains/promotions/domain"
	"github.com/commercegrid/backoffice/internal/domains/promotions/ports"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedCoupon(t *testing.T, repo *memory.Repository, mutate func(*domain.Coupon)) *domain.Coupon {
	t.Helper()
	now := time.Now()
	coupon, err := domain.NewCoupon("SAVE20", domain.DiscountPercentage, dec("20"), dec("50"), now.Add(-time.Hour), now.Add(24*time.Hour), 5)
	require.NoError(t, err)
	if mutate != nil {
		mutate(coupon)
	}
	saved, err := repo.SaveCoupon(context.Background(), coupon)
	require.NoError(t, err)
	return saved
}

func TestRedeemCoupon_UnknownCode(t *testing.T) {
	svc := NewService(memory.NewRepository())

	_, err := svc.RedeemCoupon(context.Background(), "NOPE", dec("100"), time.Now())
	require.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRedeemCoupon_InactiveFlag(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, func(c *domain.Coupon) { c.Active = false })

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.ErrorIs(t, err, domain.ErrCouponInactive)
}

func TestRedeemCoupon_WindowNotOpenYet(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, func(c *domain.Coupon) {
		c.StartsAt = time.Now().Add(24 * time.Hour)
		c.EndsAt = time.Now().Add(48 * time.Hour)
	})

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.ErrorIs(t, err, domain.ErrCouponInactive)
}

func TestRedeemCoupon_LimitExhaustedRegardlessOfOtherFields(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, func(c *domain.Coupon) { c.UsedCount = 5 })

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("1000"), time.Now())
	require.ErrorIs(t, err, domain.ErrUsageLimitReached)
}

func TestRedeemCoupon_BelowMinimum(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, nil)

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("49.99"), time.Now())
	require.ErrorIs(t, err, domain.ErrBelowMinimumAmount)
}

func TestReleaseCouponUsage_HandsBackOneUsage(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, nil)

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseCouponUsage(context.Background(), "SAVE20"))

	stored, err := repo.CouponByCode(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.Zero(t, stored.UsedCount)

	// Releasing an unredeemed coupon floors at zero instead of going negative.
	require.NoError(t, svc.ReleaseCouponUsage(context.Background(), "SAVE20"))
	stored, err = repo.CouponByCode(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.Zero(t, stored.UsedCount)

	require.ErrorIs(t, svc.ReleaseCouponUsage(context.Background(), "NOPE"), ports.ErrNotFound)
}

func TestRedeemCoupon_PercentageClampedToMaximum(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	max := dec("15")
	seedCoupon(t, repo, func(c *domain.Coupon) { c.MaximumDiscountAmount = &max })

	redemption, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.NoError(t, err)
	require.True(t, redemption.DiscountAmount.Equal(dec("15")), "got %s", redemption.DiscountAmount)
}

func TestRedeemCoupon_FixedValue(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, func(c *domain.Coupon) {
		c.Type = domain.DiscountFixed
		c.Value = dec("10")
	})

	redemption, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.NoError(t, err)
	require.True(t, redemption.DiscountAmount.Equal(dec("10")))
}

func TestRedeemCoupon_ConsumesExactlyOneUsage(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, nil)

	_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.NoError(t, err)

	coupon, err := repo.CouponByCode(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.Equal(t, int64(1), coupon.UsedCount)
}

func TestRedeemCoupon_ConcurrentLastUsage(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, func(c *domain.Coupon) { c.UsageLimit = 1 })

	const attempts = 10
	var wg sync.WaitGroup
	outcomes := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RedeemCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	var successes, limitFailures int
	for err := range outcomes {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, domain.ErrUsageLimitReached)
			limitFailures++
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, limitFailures)
}

func TestQuoteCoupon_DoesNotConsumeUsage(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	seedCoupon(t, repo, nil)

	_, err := svc.QuoteCoupon(context.Background(), "SAVE20", dec("100"), time.Now())
	require.NoError(t, err)

	coupon, err := repo.CouponByCode(context.Background(), "SAVE20")
	require.NoError(t, err)
	require.Zero(t, coupon.UsedCount)
}

func TestEvaluateDiscount_PicksBestSource(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	now := time.Now()

	_, err := repo.SaveProductDiscount(context.Background(), &domain.ProductDiscount{
		ProductID: 1,
		Type:      domain.DiscountPercentage,
		Value:     dec("10"),
		StartsAt:  now.Add(-time.Hour),
		EndsAt:    now.Add(time.Hour),
		Active:    true,
	})
	require.NoError(t, err)

	campaign, err := repo.SaveCampaign(context.Background(), &domain.Campaign{
		Name:        "summer",
		Status:      domain.CampaignActive,
		DisplayFrom: now.Add(-time.Hour),
		DisplayTo:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = repo.SaveCampaignDiscount(context.Background(), &domain.CampaignDiscount{
		CampaignID: campaign.ID,
		ProductID:  1,
		Type:       domain.DiscountFixed,
		Value:      dec("25"),
	})
	require.NoError(t, err)

	quote, err := svc.EvaluateDiscount(context.Background(), 1, dec("100"), now)
	require.NoError(t, err)
	require.True(t, quote.Amount.Equal(dec("25")))
	require.Equal(t, SourceCampaignDiscount, quote.Source)
}

func TestEvaluateDiscount_NoLiveDiscountQuotesZero(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	now := time.Now()

	_, err := repo.SaveProductDiscount(context.Background(), &domain.ProductDiscount{
		ProductID: 1,
		Type:      domain.DiscountPercentage,
		Value:     dec("10"),
		StartsAt:  now.Add(-2 * time.Hour),
		EndsAt:    now.Add(-time.Hour),
		Active:    true,
	})
	require.NoError(t, err)

	quote, err := svc.EvaluateDiscount(context.Background(), 1, dec("100"), now)
	require.NoError(t, err)
	require.True(t, quote.Amount.IsZero())
	require.Empty(t, quote.Source)
}

func TestEvaluateDiscount_PausedCampaignExcluded(t *testing.T) {
	repo := memory.NewRepository()
	svc := NewService(repo)
	now := time.Now()

	campaign, err := repo.SaveCampaign(context.Background(), &domain.Campaign{
		Name:        "paused",
		Status:      domain.CampaignPaused,
		DisplayFrom: now.Add(-time.Hour),
		DisplayTo:   now.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = repo.SaveCampaignDiscount(context.Background(), &domain.CampaignDiscount{
		CampaignID: campaign.ID,
		ProductID:  1,
		Type:       domain.DiscountFixed,
		Value:      dec("25"),
	})
	require.NoError(t, err)

	quote, err := svc.EvaluateDiscount(context.Background(), 1, dec("100"), now)
	require.NoError(t, err)
	require.True(t, quote.Amount.IsZero())
}

func TestIsBusinessRejection(t *testing.T) {
	require.True(t, IsBusinessRejection(ports.ErrNotFound))
	require.True(t, IsBusinessRejection(domain.ErrCouponInactive))
	require.True(t, IsBusinessRejection(domain.ErrUsageLimitReached))
	require.True(t, IsBusinessRejection(domain.ErrBelowMinimumAmount))
	require.False(t, IsBusinessRejection(context.DeadlineExceeded))
}
