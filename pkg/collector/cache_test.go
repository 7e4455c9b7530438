package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryRadar/pkg/model"
)

func TestCacheHitWithinTTL(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (*model.MarketSnapshot, error) {
		calls++
		return &model.MarketSnapshot{MarketStatus: "震荡"}, nil
	}

	first, err := cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	require.NoError(t, err)
	second, err := cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewSnapshotCache(30 * time.Millisecond)
	calls := 0
	fetch := func(ctx context.Context) (*model.MarketSnapshot, error) {
		calls++
		return &model.MarketSnapshot{}, nil
	}

	_, err := cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheFetchErrorPropagates(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	wantErr := errors.New("上游不可用")
	calls := 0
	fetch := func(ctx context.Context) (*model.MarketSnapshot, error) {
		calls++
		return nil, wantErr
	}

	_, err := cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	assert.ErrorIs(t, err, wantErr)

	// 失败不应被缓存，下一次继续回源
	_, err = cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, calls)
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (*model.MarketSnapshot, error) {
		calls++
		return &model.MarketSnapshot{}, nil
	}

	_, _ = cache.GetOrFetch(context.Background(), SnapshotKey, fetch)
	cache.Invalidate(SnapshotKey)
	_, _ = cache.GetOrFetch(context.Background(), SnapshotKey, fetch)

	assert.Equal(t, 2, calls)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	cache := NewSnapshotCache(time.Minute)
	calls := 0
	fetch := func(ctx context.Context) (*model.MarketSnapshot, error) {
		calls++
		return &model.MarketSnapshot{}, nil
	}

	_, _ = cache.GetOrFetch(context.Background(), "a", fetch)
	_, _ = cache.GetOrFetch(context.Background(), "b", fetch)

	assert.Equal(t, 2, calls)
}
