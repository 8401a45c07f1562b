//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
	"github.com/commercegrid/backoffice/internal/platform/migrations"
)

func setupInventoryPostgresContainer(t *testing.T) (*gorm.DB, func()) {
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

func TestRepository_AvailabilityAggregatesWarehouses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	first, err := domain.NewItem(1, nil, 1, 10, 2, 1)
	require.NoError(t, err)
	first.Reserved = 3
	_, err = repo.Save(ctx, first)
	require.NoError(t, err)

	second, err := domain.NewItem(1, nil, 2, 5, 2, 1)
	require.NoError(t, err)
	_, err = repo.Save(ctx, second)
	require.NoError(t, err)

	available, err := repo.AvailableQuantity(ctx, domain.StockKey{ProductID: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 12, available)

	warehouseID := int64(1)
	available, err = repo.AvailableQuantity(ctx, domain.StockKey{ProductID: 1, WarehouseID: &warehouseID})
	require.NoError(t, err)
	assert.EqualValues(t, 7, available)

	available, err = repo.AvailableQuantity(ctx, domain.StockKey{ProductID: 99})
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestRepository_Reserve_ConcurrentOrdersCannotOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	item, err := domain.NewItem(1, nil, 1, 10, 0, 0)
	require.NoError(t, err)
	_, err = repo.Save(ctx, item)
	require.NoError(t, err)

	key := domain.StockKey{ProductID: 1}
	const attempts = 20
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Reserve(ctx, key, 1)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 10, successes, "reservations must stop at on-hand stock")

	available, err := repo.AvailableQuantity(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, available)
}

func TestRepository_ReserveReleaseFulfillRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	item, err := domain.NewItem(2, nil, 1, 8, 0, 0)
	require.NoError(t, err)
	_, err = repo.Save(ctx, item)
	require.NoError(t, err)

	key := domain.StockKey{ProductID: 2}
	require.NoError(t, repo.Reserve(ctx, key, 5))
	require.NoError(t, repo.Release(ctx, key, 2))
	require.NoError(t, repo.Fulfill(ctx, key, 3))

	available, err := repo.AvailableQuantity(ctx, key)
	require.NoError(t, err)
	assert.EqualValues(t, 5, available)

	err = repo.Release(ctx, key, 1)
	assert.ErrorIs(t, err, domain.ErrReleaseExceedsHold)
}

func TestRepository_ReorderAndSafetyStockReports(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupInventoryPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	low, err := domain.NewItem(1, nil, 1, 2, 5, 1)
	require.NoError(t, err)
	_, err = repo.Save(ctx, low)
	require.NoError(t, err)

	healthy, err := domain.NewItem(2, nil, 1, 50, 5, 1)
	require.NoError(t, err)
	_, err = repo.Save(ctx, healthy)
	require.NoError(t, err)

	critical, err := domain.NewItem(3, nil, 1, 1, 5, 2)
	require.NoError(t, err)
	_, err = repo.Save(ctx, critical)
	require.NoError(t, err)

	needReorder, err := repo.FindNeedingReorder(ctx)
	require.NoError(t, err)
	assert.Len(t, needReorder, 2)

	belowSafety, err := repo.FindBelowSafetyStock(ctx)
	require.NoError(t, err)
	require.Len(t, belowSafety, 1)
	assert.EqualValues(t, 3, belowSafety[0].ProductID)
}
