package dedup

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCache_UnknownIDIsNotDuplicate(t *testing.T) {
	c := NewMemoryCache(5 * time.Minute)

	assert.False(t, c.IsDuplicate(context.Background(), "O1"))
}

func TestMemoryCache_RecordThenDuplicate(t *testing.T) {
	c := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	c.Record(ctx, "O1", time.Now())

	assert.True(t, c.IsDuplicate(ctx, "O1"))
	assert.False(t, c.IsDuplicate(ctx, "O2"))
}

func TestMemoryCache_StaleEntryReadsAsAbsent(t *testing.T) {
	c := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	base := time.Now()
	c.now = func() time.Time { return base }
	c.Record(ctx, "O1", base)

	c.now = func() time.Time { return base.Add(4 * time.Minute) }
	assert.True(t, c.IsDuplicate(ctx, "O1"))

	c.now = func() time.Time { return base.Add(5 * time.Minute) }
	assert.False(t, c.IsDuplicate(ctx, "O1"))
	// The stale read evicts opportunistically.
	assert.Zero(t, c.Len())
}

func TestMemoryCache_RecordOverwritesTimestamp(t *testing.T) {
	c := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	base := time.Now()
	c.Record(ctx, "O1", base.Add(-10*time.Minute))
	c.now = func() time.Time { return base }
	assert.False(t, c.IsDuplicate(ctx, "O1"))

	c.Record(ctx, "O1", base)
	assert.True(t, c.IsDuplicate(ctx, "O1"))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_ZeroWindowFallsBackToDefault(t *testing.T) {
	c := NewMemoryCache(0)

	assert.Equal(t, DefaultWindow, c.window)
}

func TestMemoryCache_ConcurrentCheckAndRecord(t *testing.T) {
	c := NewMemoryCache(5 * time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("O-%d", i%10)
			if !c.IsDuplicate(ctx, id) {
				c.Record(ctx, id, time.Now())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
	for i := 0; i < 10; i++ {
		assert.True(t, c.IsDuplicate(ctx, fmt.Sprintf("O-%d", i)))
	}
}
