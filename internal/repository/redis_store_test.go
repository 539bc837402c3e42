package repository

import (
	"context"
	"encoding/json"
	"testing"

	"SignalScan/internal/domain/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreSetOverwrites(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "signalscan")
	ctx := context.Background()

	path := models.LatestPath(models.SignalReversalBull, "TCS")
	first := models.SignalPayload{Symbol: "TCS", SignalType: "reversal_bull", Timestamp: "2024-10-10 10:00:00"}
	second := first
	second.Timestamp = "2024-10-10 10:15:00"

	require.NoError(t, store.Set(ctx, path, first))
	require.NoError(t, store.Set(ctx, path, second))

	raw, err := mr.Get("signalscan:signals:reversal_bull:TCS")
	require.NoError(t, err)

	var got models.SignalPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, second, got)
}

func TestRedisStorePushAppends(t *testing.T) {
	_, client := newTestRedis(t)
	store := NewRedisStore(client, "signalscan")
	ctx := context.Background()

	path := models.HistoryPath(models.SignalBreakoutBear)
	id1, err := store.Push(ctx, path, models.SignalPayload{Symbol: "INFY"})
	require.NoError(t, err)
	id2, err := store.Push(ctx, path, models.SignalPayload{Symbol: "TCS"})
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	entries, err := client.XRange(ctx, "signalscan:signals:history:breakout_bear", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Values[historyField], `"symbol":"INFY"`)
	assert.Contains(t, entries[1].Values[historyField], `"symbol":"TCS"`)
}

func TestRedisStoreHealthAndFailure(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Health(ctx))

	mr.Close()
	assert.Error(t, store.Health(ctx))
	assert.Error(t, store.Set(ctx, "/signals/x/y", 1))
}
