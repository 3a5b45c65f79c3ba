package ttl

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCache(t *testing.T) {
	t.Run("get returns stored value within ttl", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Hour, WithClock(clock.Now))

		c.Put("a", 1)
		clock.Advance(59 * time.Minute)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, v)
	})

	t.Run("entry invisible once ttl elapses", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Hour, WithClock(clock.Now))

		c.Put("a", 1)
		clock.Advance(time.Hour)

		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("put overwrites and restarts ttl", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Hour, WithClock(clock.Now))

		c.Put("a", 1)
		clock.Advance(30 * time.Minute)
		c.Put("a", 2)
		clock.Advance(45 * time.Minute)

		v, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, v)
	})

	t.Run("struct keys compare by value", func(t *testing.T) {
		type key struct{ chain, addr string }
		c := New[key, string](time.Hour)

		c.Put(key{"1", "0xabc"}, "x")
		v, ok := c.Get(key{"1", "0xabc"})
		require.True(t, ok)
		assert.Equal(t, "x", v)

		_, ok = c.Get(key{"56", "0xabc"})
		assert.False(t, ok)
	})

	t.Run("put if absent respects live entries", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Minute, WithClock(clock.Now))

		assert.True(t, c.PutIfAbsent("a", 1))
		assert.False(t, c.PutIfAbsent("a", 2))

		clock.Advance(time.Minute)
		assert.True(t, c.PutIfAbsent("a", 3))
		v, _ := c.Get("a")
		assert.Equal(t, 3, v)
	})

	t.Run("sweep removes only expired entries", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Minute, WithClock(clock.Now))

		c.Put("old", 1)
		clock.Advance(30 * time.Second)
		c.Put("new", 2)
		clock.Advance(40 * time.Second)

		assert.Equal(t, 1, c.Sweep())
		assert.Equal(t, 1, c.Len())
		_, ok := c.Get("new")
		assert.True(t, ok)
	})

	t.Run("writes drop expired entries", func(t *testing.T) {
		clock := newFakeClock()
		c := New[string, int](time.Hour, WithClock(clock.Now))

		for i := 0; i < 1000; i++ {
			c.Put(strconv.Itoa(i), i)
		}
		require.Equal(t, 1000, c.Retained())

		clock.Advance(2 * time.Hour)
		c.Put("fresh", 1)
		assert.Equal(t, 1, c.Retained())
		assert.Equal(t, 1, c.Len())
	})

	t.Run("delete", func(t *testing.T) {
		c := New[string, int](time.Minute)
		c.Put("a", 1)
		c.Delete("a")
		_, ok := c.Get("a")
		assert.False(t, ok)
	})
}

func TestSet(t *testing.T) {
	t.Run("add reports first insertion only", func(t *testing.T) {
		s := NewSet[string](5 * time.Minute)

		assert.True(t, s.Add("evt-1"))
		assert.False(t, s.Add("evt-1"))
		assert.True(t, s.Contains("evt-1"))
		assert.False(t, s.Contains("evt-2"))
	})

	t.Run("member expires after window", func(t *testing.T) {
		clock := newFakeClock()
		s := NewSet[string](5*time.Minute, WithClock(clock.Now))

		require.True(t, s.Add("evt-1"))
		clock.Advance(4*time.Minute + 59*time.Second)
		assert.False(t, s.Add("evt-1"))

		clock.Advance(time.Second)
		assert.False(t, s.Contains("evt-1"))
		assert.True(t, s.Add("evt-1"))
	})

	t.Run("re-add within window does not extend expiry", func(t *testing.T) {
		clock := newFakeClock()
		s := NewSet[string](time.Minute, WithClock(clock.Now))

		s.Add("a")
		clock.Advance(50 * time.Second)
		s.Add("a")
		clock.Advance(10 * time.Second)
		assert.False(t, s.Contains("a"))
	})

	t.Run("concurrent adds admit one winner", func(t *testing.T) {
		s := NewSet[string](time.Minute)

		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if s.Add("same") {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, wins)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("distinct ids are released after the window", func(t *testing.T) {
		clock := newFakeClock()
		s := NewSet[string](5*time.Minute, WithClock(clock.Now))

		for i := 0; i < 10000; i++ {
			s.Add("evt-" + strconv.Itoa(i))
		}
		require.Equal(t, 10000, s.Retained())

		clock.Advance(time.Hour)
		assert.True(t, s.Add("evt-last"))
		assert.Equal(t, 1, s.Retained())
		assert.Equal(t, 1, s.Len())
	})

	t.Run("remove", func(t *testing.T) {
		s := NewSet[string](time.Minute)
		s.Add("a")
		s.Remove("a")
		assert.False(t, s.Contains("a"))
	})
}
