package field

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

func rawCombiner() *scoring.Combiner {
	return scoring.NewCombiner(scoring.DefaultModel(), scoring.VariantRaw, scoring.DefaultWeights())
}

func TestSampleCorners(t *testing.T) {
	c := rawCombiner()
	f, err := Sample(context.Background(), c, 11, 8)
	require.NoError(t, err)
	require.Len(t, f.Values, 11*8)

	// Top-left: P=13 (min), R=12 (max).
	assert.InDelta(t, c.At(13, 12), f.At(0, 0), 1e-9)
	// Bottom-left: P=13, R=5.
	assert.InDelta(t, 0, f.At(0, 7), 1e-9)
	// Top-right: P=23, R=12.
	assert.InDelta(t, 245, f.At(10, 0), 1e-9)
	// Bottom-right: P=23, R=5.
	assert.InDelta(t, 120, f.At(10, 7), 1e-9)

	assert.Equal(t, 0.0, f.Min)
	assert.InDelta(t, 245, f.Max, 1e-9)
}

func TestSampleMatchesSequentialPass(t *testing.T) {
	c := scoring.NewCombiner(scoring.DefaultModel(), scoring.VariantWeighted, scoring.WeightSet{P: 0.3, R: 0.8})
	const w, h = 37, 23
	f, err := Sample(context.Background(), c, w, h)
	require.NoError(t, err)

	pd, rd := c.Model().P.Domain, c.Model().R.Domain
	for y := 0; y < h; y++ {
		r := rd.Max - float64(y)/float64(h-1)*rd.Span()
		for x := 0; x < w; x++ {
			p := pd.Min + float64(x)/float64(w-1)*pd.Span()
			require.Equal(t, c.At(p, r), f.At(x, y), "x=%d y=%d", x, y)
		}
	}
}

func TestSampleRejectsDegenerateGrid(t *testing.T) {
	_, err := Sample(context.Background(), rawCombiner(), 1, 10)
	assert.True(t, errors.Is(err, ErrGridTooSmall))
	_, err = Sample(context.Background(), rawCombiner(), 10, 0)
	assert.True(t, errors.Is(err, ErrGridTooSmall))
}

func TestSampleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Sample(ctx, rawCombiner(), 50, 50)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCacheHitAndMiss(t *testing.T) {
	c := NewCache[int](4)
	key := Key{Width: 10, Height: 10, Variant: scoring.VariantRaw}
	calls := 0
	fn := func() (int, error) { calls++; return 42, nil }

	v, err := c.Get(key, fn)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	v, err = c.Get(key, fn)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), c.Hits())
	assert.Equal(t, uint64(1), c.Misses())
}

func TestCacheEvictsOldest(t *testing.T) {
	c := NewCache[int](2)
	for i := 1; i <= 3; i++ {
		_, _ = c.Get(Key{Width: i, Height: i}, func() (int, error) { return i, nil })
	}
	assert.Equal(t, 2, c.Len())

	recomputed := false
	_, _ = c.Get(Key{Width: 1, Height: 1}, func() (int, error) { recomputed = true; return 1, nil })
	assert.True(t, recomputed)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := NewCache[int](2)
	key := Key{Width: 5, Height: 5}
	_, err := c.Get(key, func() (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCacheInvalidate(t *testing.T) {
	c := NewCache[int](2)
	key := Key{Width: 5, Height: 5, Weights: scoring.WeightSet{P: 0.1, R: 0.2}}
	_, _ = c.Get(key, func() (int, error) { return 1, nil })
	c.Invalidate()
	assert.Equal(t, 0, c.Len())
}

func TestCacheSharesConcurrentMisses(t *testing.T) {
	c := NewCache[int](0)
	key := Key{Width: 7, Height: 7}
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Get(key, func() (int, error) {
				calls.Add(1)
				<-release
				return 7, nil
			})
		}()
	}
	close(release)
	wg.Wait()

	// Disabled storage: nothing is kept, but at least one computation ran.
	assert.Equal(t, 0, c.Len())
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestCacheRetriesAfterForeignCancellation(t *testing.T) {
	c := NewCache[int](4)
	key := Key{Width: 9, Height: 9}
	var calls atomic.Int32
	started := make(chan struct{})

	fn := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		}
		return 42, nil
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetContext(ctxA, key, fn)
		errA <- err
	}()
	<-started

	type result struct {
		v   int
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := c.GetContext(context.Background(), key, fn)
		resB <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)
	cancelA()

	assert.ErrorIs(t, <-errA, context.Canceled)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 42, b.v)
}

func TestCacheGetContextReturnsOwnCancellation(t *testing.T) {
	c := NewCache[int](4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := c.GetContext(ctx, Key{Width: 3, Height: 3}, func(ctx context.Context) (int, error) {
		calls.Add(1)
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}
