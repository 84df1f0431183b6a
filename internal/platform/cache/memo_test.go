// Copyright (c) 2026 Monova. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cache_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/monova/internal/platform/cache"
)

/*
TestMemo_ComputesOnce verifies the core memoization contract: many
concurrent callers asking for the same key trigger exactly one computation,
and all of them observe its result.
*/
func TestMemo_ComputesOnce(t *testing.T) {
	memo := cache.NewMemo()

	var computeCount atomic.Int64
	compute := func() (any, error) {
		computeCount.Add(1)
		return "expensive-result", nil
	}

	const workers = 50
	var wg sync.WaitGroup
	results := make([]any, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			value, err := memo.Do("permissions:/cph/problems|GET", compute)
			assert.NoError(t, err)
			results[index] = value
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), computeCount.Load())
	for _, value := range results {
		assert.Equal(t, "expensive-result", value)
	}
}

/*
TestMemo_ErrorsAreNotCached verifies that a failed computation does not
poison the cache: the next caller recomputes.
*/
func TestMemo_ErrorsAreNotCached(t *testing.T) {
	memo := cache.NewMemo()

	var calls atomic.Int64
	failing := func() (any, error) {
		calls.Add(1)
		return nil, errors.New("database unavailable")
	}

	_, err := memo.Do("k", failing)
	require.Error(t, err)

	value, err := memo.Do("k", func() (any, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, int64(1), calls.Load())
}

/*
TestMemo_KeysAreIndependent verifies entries do not collide across keys.
*/
func TestMemo_KeysAreIndependent(t *testing.T) {
	memo := cache.NewMemo()

	a, err := memo.Do("a", func() (any, error) { return "A", nil })
	require.NoError(t, err)
	b, err := memo.Do("b", func() (any, error) { return "B", nil })
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
}

/*
TestMemo_Forget verifies invalidation forces a fresh computation.
*/
func TestMemo_Forget(t *testing.T) {
	memo := cache.NewMemo()

	var calls atomic.Int64
	compute := func() (any, error) {
		return calls.Add(1), nil
	}

	first, err := memo.Do("k", compute)
	require.NoError(t, err)

	cached, err := memo.Do("k", compute)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	memo.Forget("k")

	recomputed, err := memo.Do("k", compute)
	require.NoError(t, err)
	assert.NotEqual(t, first, recomputed)
}
