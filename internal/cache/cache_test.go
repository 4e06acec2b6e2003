package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStoreTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(clock.Now)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "forecast", []byte("sunny"), time.Hour))
	require.NoError(t, s.Set(ctx, "tz", []byte("America/Toronto"), NoExpiry))

	v, ok, err := s.Get(ctx, "forecast")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("sunny"), v)

	clock.Advance(59 * time.Minute)
	_, ok, _ = s.Get(ctx, "forecast")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok, _ = s.Get(ctx, "forecast")
	assert.False(t, ok)

	clock.Advance(365 * 24 * time.Hour)
	v, ok, _ = s.Get(ctx, "tz")
	assert.True(t, ok)
	assert.Equal(t, "America/Toronto", string(v))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreKeepsEntryRefreshedDuringExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)}
	ctx := context.Background()
	var s *MemoryStore
	refresh := false
	s = NewMemoryStore(func() time.Time {
		// the first expiry check sees the stale entry; a writer lands before the delete
		if refresh {
			refresh = false
			require.NoError(t, s.Set(ctx, "forecast", []byte("rain"), time.Hour))
		}
		return clock.Now()
	})

	require.NoError(t, s.Set(ctx, "forecast", []byte("sunny"), time.Hour))
	clock.Advance(2 * time.Hour)
	refresh = true

	v, ok, err := s.Get(ctx, "forecast")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "rain", string(v))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, NoExpiry))
	buf[0] = 'z'

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))

	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ := s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	type forecast struct {
		Codes []int `json:"codes"`
	}
	require.NoError(t, SetJSON(ctx, s, "f", forecast{Codes: []int{0, 61}}, NoExpiry))

	var got forecast
	ok, err := GetJSON(ctx, s, "f", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{0, 61}, got.Codes)

	ok, err = GetJSON(ctx, s, "missing", &got)
	assert.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "bad", []byte("{"), NoExpiry))
	_, err = GetJSON(ctx, s, "bad", &got)
	assert.Error(t, err)
}
