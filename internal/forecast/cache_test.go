package forecast

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"retail-ops/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrLoadReadsThroughOnce(t *testing.T) {
	var loads atomic.Int32
	cache := NewCache(func(key string) (*Model, error) {
		loads.Add(1)
		return &Model{ProductID: key}, nil
	})

	first, err := cache.GetOrLoad("p1")
	require.NoError(t, err)
	require.Equal(t, "p1", first.ProductID)
	assert.Equal(t, int32(1), loads.Load())

	// Second call is a memory hit: same artifact, no storage I/O.
	second, err := cache.GetOrLoad("p1")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loads.Load())
}

func TestGetOrLoadMissDoesNotPopulateCache(t *testing.T) {
	cache := NewCache(func(key string) (*Model, error) {
		return nil, fmt.Errorf("model %s: %w", key, apperrors.ErrNotFound)
	})

	_, err := cache.GetOrLoad("ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, cache.Contains("ghost"))
	assert.Equal(t, 0, cache.Len())
}

func TestGetOrLoadSurfacesCorruption(t *testing.T) {
	cache := NewCache(func(key string) (*Model, error) {
		return nil, fmt.Errorf("artifact %s: %w", key, apperrors.ErrStorageCorruption)
	})

	_, err := cache.GetOrLoad("bad")
	assert.ErrorIs(t, err, apperrors.ErrStorageCorruption)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, cache.Contains("bad"))
}

func TestGetOrLoadSingleFlight(t *testing.T) {
	var loads atomic.Int32
	release := make(chan struct{})
	cache := NewCache(func(key string) (*Model, error) {
		loads.Add(1)
		<-release
		return &Model{ProductID: key}, nil
	})

	const callers = 16
	var wg sync.WaitGroup
	results := make([]*Model, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrLoad("hot")
		}(i)
	}

	close(release)
	wg.Wait()

	// All concurrent requesters for the same key shared one in-flight load.
	assert.Equal(t, int32(1), loads.Load())
	for i := range results {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestPutOverwrites(t *testing.T) {
	cache := NewCache(func(key string) (*Model, error) {
		return nil, fmt.Errorf("model %s: %w", key, apperrors.ErrNotFound)
	})

	old := &Model{ProductID: "p1", Points: 14}
	cache.Put("p1", old)

	fresh := &Model{ProductID: "p1", Points: 30}
	cache.Put("p1", fresh)

	got, err := cache.GetOrLoad("p1")
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}
