package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/commercegrid/backoffice/internal/domains/inventory/domain"
)

func TestReserve_ConcurrentOrdersCannotOversell(t *testing.T) {
	repo := NewRepository()
	item, err := domain.NewItem(1, nil, 1, 10, 2, 1)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), item)
	require.NoError(t, err)

	key := domain.StockKey{ProductID: 1}
	const workers = 20

	var wg sync.WaitGroup
	successes := make(chan struct{}, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Reserve(context.Background(), key, 1); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	require.Len(t, successes, 10)

	available, err := repo.AvailableQuantity(context.Background(), key)
	require.NoError(t, err)
	require.Zero(t, available)
}

func TestReserve_SpansMultipleWarehouses(t *testing.T) {
	repo := NewRepository()
	for warehouse := int64(1); warehouse <= 2; warehouse++ {
		item, err := domain.NewItem(1, nil, warehouse, 3, 1, 0)
		require.NoError(t, err)
		_, err = repo.Save(context.Background(), item)
		require.NoError(t, err)
	}

	key := domain.StockKey{ProductID: 1}
	require.NoError(t, repo.Reserve(context.Background(), key, 5))

	available, err := repo.AvailableQuantity(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, int64(1), available)
}

func TestReserve_NoPartialEffectOnFailure(t *testing.T) {
	repo := NewRepository()
	item, err := domain.NewItem(1, nil, 1, 3, 1, 0)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), item)
	require.NoError(t, err)

	key := domain.StockKey{ProductID: 1}
	err = repo.Reserve(context.Background(), key, 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	available, err := repo.AvailableQuantity(context.Background(), key)
	require.NoError(t, err)
	require.Equal(t, int64(3), available)
}

func TestRelease_ExceedingHoldFails(t *testing.T) {
	repo := NewRepository()
	item, err := domain.NewItem(1, nil, 1, 5, 1, 0)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), item)
	require.NoError(t, err)

	key := domain.StockKey{ProductID: 1}
	require.NoError(t, repo.Reserve(context.Background(), key, 2))
	require.ErrorIs(t, repo.Release(context.Background(), key, 3), domain.ErrReleaseExceedsHold)
	require.NoError(t, repo.Release(context.Background(), key, 2))
}
