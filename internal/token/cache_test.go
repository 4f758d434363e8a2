package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/counselhub/counselhub/internal/backend"
	"github.com/counselhub/counselhub/internal/objects"
	"github.com/counselhub/counselhub/internal/pkg/xtime"
)

func TestCacheStoreAndLookup(t *testing.T) {
	c := NewCache(CacheOptions{})
	now := xtime.UTCNow()

	record := &Record{
		Token:     "tok-1",
		Valid:     true,
		Claims:    &objects.TokenClaims{Subject: "counselor-7", SchoolID: "SCH-1"},
		ExpiresAt: now.Add(time.Hour),
		CachedAt:  now,
	}
	require.NoError(t, c.Store(t.Context(), record))

	got, ok := c.Lookup(t.Context(), "tok-1")
	require.True(t, ok)
	require.True(t, got.Valid)
	require.Equal(t, "counselor-7", got.Claims.Subject)

	_, ok = c.Lookup(t.Context(), "tok-2")
	require.False(t, ok)
}

func TestCacheLookupHonorsTTL(t *testing.T) {
	c := NewCache(CacheOptions{TTL: 40 * time.Millisecond})

	record := &Record{
		Token:     "tok-1",
		Valid:     true,
		ExpiresAt: xtime.UTCNow().Add(time.Hour),
	}
	require.NoError(t, c.Store(t.Context(), record))

	_, ok := c.Lookup(t.Context(), "tok-1")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.Lookup(t.Context(), "tok-1")
	require.False(t, ok, "record past its TTL must not be served")
}

func TestCacheLookupHonorsTokenExpiry(t *testing.T) {
	c := NewCache(CacheOptions{TTL: time.Hour})

	record := &Record{
		Token:     "tok-1",
		Valid:     true,
		ExpiresAt: xtime.UTCNow().Add(40 * time.Millisecond),
	}
	require.NoError(t, c.Store(t.Context(), record))

	time.Sleep(60 * time.Millisecond)

	_, ok := c.Lookup(t.Context(), "tok-1")
	require.False(t, ok, "the token's own expiry caps the cache window")
}

func TestCacheSkipsAlreadyExpiredRecords(t *testing.T) {
	c := NewCache(CacheOptions{})

	record := &Record{
		Token:     "tok-1",
		Valid:     true,
		ExpiresAt: xtime.UTCNow().Add(-time.Minute),
	}
	require.NoError(t, c.Store(t.Context(), record))

	_, ok := c.Lookup(t.Context(), "tok-1")
	require.False(t, ok)
}

func TestCacheStoreRequiresToken(t *testing.T) {
	c := NewCache(CacheOptions{})

	err := c.Store(t.Context(), &Record{})
	require.Error(t, err)
	require.True(t, backend.IsProgrammingError(err))
}

func TestCacheForget(t *testing.T) {
	c := NewCache(CacheOptions{})

	record := &Record{Token: "tok-1", Valid: true, ExpiresAt: xtime.UTCNow().Add(time.Hour)}
	require.NoError(t, c.Store(t.Context(), record))

	c.Forget(t.Context(), "tok-1")

	_, ok := c.Lookup(t.Context(), "tok-1")
	require.False(t, ok)
}
