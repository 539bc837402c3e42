package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheTTL(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.SetBytes(ctx, "k", []byte("v"), time.Minute))
	b, ok, err := mc.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(b))

	now = now.Add(2 * time.Minute)
	_, ok, err = mc.GetBytes(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, mc.SetBytes(ctx, "a", []byte("1"), 0))
	now = now.Add(time.Second)
	require.NoError(t, mc.SetBytes(ctx, "b", []byte("2"), 0))
	now = now.Add(time.Second)
	_, _, _ = mc.GetBytes(ctx, "a")
	now = now.Add(time.Second)
	require.NoError(t, mc.SetBytes(ctx, "c", []byte("3"), 0))

	_, ok, _ := mc.GetBytes(ctx, "b")
	assert.False(t, ok, "b was least recently used")
	_, ok, _ = mc.GetBytes(ctx, "a")
	assert.True(t, ok)
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}

func TestJSONHelpersOverRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCache(client, "signalscan")
	ctx := context.Background()

	type doc struct {
		Symbol string `json:"symbol"`
	}
	require.NoError(t, SetJSON(ctx, c, "bars:TCS", doc{Symbol: "TCS"}, time.Minute))
	assert.True(t, mr.Exists("signalscan:cache:bars:TCS"))
	assert.Equal(t, time.Minute, mr.TTL("signalscan:cache:bars:TCS"))

	var got doc
	ok, err := GetJSON(ctx, c, "bars:TCS", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "TCS", got.Symbol)

	ok, err = GetJSON(ctx, c, "missing", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "a:b", GenerateKey("a", "b"))
	assert.Equal(t, "bars:TCS:1d:10", GenerateKeyWithParams("bars", "TCS", "1d", 10))
}
