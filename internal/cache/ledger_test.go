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

func setupLedger(t *testing.T) (*RedisLedger, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLedger(client, "stripe-event", time.Hour), mr
}

func TestLedger_ClaimOnce(t *testing.T) {
	ledger, mr := setupLedger(t)
	ctx := context.Background()

	first, err := ledger.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := ledger.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, second)

	assert.True(t, mr.Exists("stripe-event:evt_1"))
	assert.Equal(t, time.Hour, mr.TTL("stripe-event:evt_1"))
}

func TestLedger_ReleaseAllowsReclaim(t *testing.T) {
	ledger, _ := setupLedger(t)
	ctx := context.Background()

	ok, err := ledger.Claim(ctx, "evt_2")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ledger.Release(ctx, "evt_2"))

	ok, err = ledger.Claim(ctx, "evt_2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_ClaimExpires(t *testing.T) {
	ledger, mr := setupLedger(t)
	ctx := context.Background()

	_, err := ledger.Claim(ctx, "evt_3")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)

	ok, err := ledger.Claim(ctx, "evt_3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_RedisDown(t *testing.T) {
	ledger, mr := setupLedger(t)
	mr.Close()

	_, err := ledger.Claim(context.Background(), "evt_4")
	assert.ErrorContains(t, err, "ledger claim failed")
}
