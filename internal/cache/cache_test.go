package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCache(ttl time.Duration) (*Cache, *time.Time) {
	c := New(ttl, 0)
	now := time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetSetExpire(t *testing.T) {
	c, now := newTestCache(time.Minute)
	defer c.Close()

	c.Set("a", []byte("1"))
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	*now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestSetWithNonPositiveTTLIsNoop(t *testing.T) {
	c, _ := newTestCache(0)
	defer c.Close()

	c.Set("a", []byte("1"))
	assert.Equal(t, 0, c.Len())
}

func TestDeletePrefix(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Close()

	c.Set(Key("GET", "/api/gallery"), []byte("g"))
	c.Set(Key("GET", "/api/gallery?x=1"), []byte("g2"))
	c.Set(Key("GET", "/api/contacts"), []byte("c"))

	assert.Equal(t, 2, c.DeletePrefix("/api/gallery"))
	_, ok := c.Get(Key("GET", "/api/contacts"))
	assert.True(t, ok)
}

func TestEvictExpiredAndPurge(t *testing.T) {
	c, now := newTestCache(time.Minute)
	defer c.Close()

	c.Set("old", []byte("1"))
	*now = now.Add(30 * time.Second)
	c.Set("new", []byte("2"))
	*now = now.Add(45 * time.Second)

	c.evictExpired()
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(time.Minute, time.Millisecond)
	c.Close()
	c.Close()
}

func TestSetIfGeneration(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	defer c.Close()

	gen := c.Generation()
	assert.True(t, c.SetIfGeneration("GET /api/gallery", []byte("1"), gen))

	stale := c.Generation()
	c.DeletePrefix("/api/gallery")
	assert.False(t, c.SetIfGeneration("GET /api/gallery", []byte("old"), stale))
	_, ok := c.Get("GET /api/gallery")
	assert.False(t, ok)

	stale = c.Generation()
	c.Purge()
	assert.False(t, c.SetIfGeneration("GET /api/contacts", []byte("old"), stale))

	assert.True(t, c.SetIfGeneration("GET /api/contacts", []byte("2"), c.Generation()))
	v, ok := c.Get("GET /api/contacts")
	assert.True(t, ok)
	assert.Equal(t, []byte("2"), v)
}
