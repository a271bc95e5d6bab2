package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundgraph-backend/internal/domain/taxonomy"
)

type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(0, 0)}
	c := NewMemoryCache(10, 0, zap.NewNop()).WithClock(clk.Now)

	c.Set(ctx, "search:skepta", []byte(`[1]`), time.Minute)
	v, ok := c.Get(ctx, "search:skepta")
	require.True(t, ok)
	assert.Equal(t, []byte(`[1]`), v)

	clk.t = clk.t.Add(time.Minute)
	_, ok = c.Get(ctx, "search:skepta")
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Items)
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, 0, nil)

	c.Set(ctx, "a", []byte("1"), time.Hour)
	c.Set(ctx, "b", []byte("2"), time.Hour)
	_, _ = c.Get(ctx, "a")
	c.Set(ctx, "c", []byte("3"), time.Hour)

	_, okA := c.Get(ctx, "a")
	_, okB := c.Get(ctx, "b")
	_, okC := c.Get(ctx, "c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
	assert.Equal(t, int64(1), c.GetStats().Evictions)
}

func TestMemoryCache_TooLarge(t *testing.T) {
	c := NewMemoryCache(10, 8, nil)

	c.Set(context.Background(), "key", []byte("0123456789"), time.Hour)

	assert.Equal(t, 0, c.GetStats().Items)
}

func TestMemoryCache_ClearAndCleanup(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Unix(0, 0)}
	c := NewMemoryCache(10, 0, nil).WithClock(clk.Now)
	c.Set(ctx, "taxonomy:jazz", []byte("x"), time.Second)
	c.Set(ctx, "taxonomy:rock", []byte("x"), time.Hour)
	c.Set(ctx, "search:rock", []byte("x"), time.Hour)

	assert.Equal(t, 2, c.Clear(ctx, "taxonomy:*"))
	clk.t = clk.t.Add(2 * time.Hour)
	assert.Equal(t, 1, c.cleanupExpired())
	assert.Equal(t, 0, c.GetStats().Items)
}

func TestMemoryCache_JSON(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, 0, nil)

	c.SetJSON(ctx, "taxonomy:grime", []string{"Grindie", "Eskibeat"}, time.Hour)
	var got []string
	require.True(t, c.GetJSON(ctx, "taxonomy:grime", &got))
	assert.Equal(t, []string{"Grindie", "Eskibeat"}, got)

	c.Set(ctx, "broken", []byte("{"), time.Hour)
	assert.False(t, c.GetJSON(ctx, "broken", &got))
	_, ok := c.Get(ctx, "broken")
	assert.False(t, ok, "undecodable entry is dropped")
}

type recorder struct {
	mu     sync.Mutex
	hits   int
	misses int
}

func (r *recorder) RecordCacheLookup(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func TestSummaryCache_WriteThrough(t *testing.T) {
	// Arrange
	rec := &recorder{}
	c := NewSummaryCache(rec)
	var calls int32
	resolve := func(_ context.Context, name string) *taxonomy.Summary {
		atomic.AddInt32(&calls, 1)
		return &taxonomy.Summary{Title: name, Extract: "x"}
	}

	// Act
	first := c.Resolve(context.Background(), "Jazz", resolve)
	second := c.Resolve(context.Background(), "Jazz", resolve)
	other := c.Resolve(context.Background(), "jazz", resolve)

	// Assert
	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, "jazz", other.Title, "keys are case-sensitive")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func TestSummaryCache_FailuresNotCached(t *testing.T) {
	c := NewSummaryCache(nil)
	var calls int32
	resolve := func(context.Context, string) *taxonomy.Summary {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	assert.Nil(t, c.Resolve(context.Background(), "Pageless", resolve))
	assert.Nil(t, c.Resolve(context.Background(), "Pageless", resolve))

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 0, c.Len())
}

func TestSummaryCache_ReturnsCopies(t *testing.T) {
	c := NewSummaryCache(nil)
	c.Put("Grime", &taxonomy.Summary{Title: "Grime"})

	s, ok := c.Get("Grime")
	require.True(t, ok)
	s.Title = "mutated"

	again, _ := c.Get("Grime")
	assert.Equal(t, "Grime", again.Title)
}

func TestSummaryCache_ConcurrentLookups(t *testing.T) {
	c := NewSummaryCache(nil)
	release := make(chan struct{})
	var calls int32
	resolve := func(context.Context, string) *taxonomy.Summary {
		atomic.AddInt32(&calls, 1)
		<-release
		return &taxonomy.Summary{Title: "House music"}
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "House music", c.Resolve(context.Background(), "house", resolve).Title)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))
	assert.Equal(t, 1, c.Len())
}

func TestSummaryCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	// Arrange
	c := NewSummaryCache(nil)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	resolve := func(ctx context.Context, _ string) *taxonomy.Summary {
		once.Do(func() { close(started) })
		<-release
		if ctx.Err() != nil {
			return nil
		}
		return &taxonomy.Summary{Title: "Grime (music genre)"}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstDone := make(chan *taxonomy.Summary, 1)
	go func() { firstDone <- c.Resolve(firstCtx, "Grime", resolve) }()
	<-started

	secondDone := make(chan *taxonomy.Summary, 1)
	go func() { secondDone <- c.Resolve(context.Background(), "Grime", resolve) }()
	time.Sleep(20 * time.Millisecond)

	// Act
	cancelFirst()
	first := <-firstDone
	close(release)
	second := <-secondDone

	// Assert
	assert.Nil(t, first, "a cancelled caller stops waiting")
	require.NotNil(t, second, "live callers still get the shared result")
	assert.Equal(t, "Grime (music genre)", second.Title)
	assert.Equal(t, 1, c.Len())
}

func TestSummaryCache_ResolutionIsBounded(t *testing.T) {
	c := NewSummaryCache(nil).WithTimeout(10 * time.Millisecond)
	resolve := func(ctx context.Context, _ string) *taxonomy.Summary {
		<-ctx.Done()
		return nil
	}

	assert.Nil(t, c.Resolve(context.Background(), "Slow", resolve))
	assert.Equal(t, 0, c.Len())
}
