package indexer

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFetcher struct {
	tokenCalls, nativeCalls int
}

func (f *countingFetcher) GetWalletTokenBalances(context.Context, string, string) ([]TokenBalance, error) {
	f.tokenCalls++
	return []TokenBalance{{TokenAddress: "0xA", Symbol: "USDC", Decimals: 6, Balance: big.NewInt(5_000_000)}}, nil
}

func (f *countingFetcher) GetNativeBalance(context.Context, string, string) (*big.Int, error) {
	f.nativeCalls++
	return big.NewInt(42), nil
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (r *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (r *fakeRedis) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = string(value.([]byte))
	r.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (r *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.data[k]; ok {
			delete(r.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestCachedMemory(t *testing.T) {
	next := &countingFetcher{}
	c := NewCached(next, nil, time.Minute, nil)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.GetWalletTokenBalances(ctx, "0x2105", testOwner)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "5000000", got[0].Balance.String())
	}
	assert.Equal(t, 1, next.tokenCalls)

	now = now.Add(2 * time.Minute)
	_, err := c.GetWalletTokenBalances(ctx, "0x2105", testOwner)
	require.NoError(t, err)
	assert.Equal(t, 2, next.tokenCalls)
}

func TestCachedRedisAndInvalidate(t *testing.T) {
	next := &countingFetcher{}
	rdb := newFakeRedis()
	c := NewCached(next, rdb, 30*time.Second, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		bal, err := c.GetNativeBalance(ctx, "0x2105", testOwner)
		require.NoError(t, err)
		assert.Equal(t, int64(42), bal.Int64())
	}
	assert.Equal(t, 1, next.nativeCalls)
	assert.Equal(t, 30*time.Second, rdb.ttls[cacheKey("0x2105", testOwner, "native")])

	c.Invalidate(ctx, "0x2105", testOwner)
	_, err := c.GetNativeBalance(ctx, "0x2105", testOwner)
	require.NoError(t, err)
	assert.Equal(t, 2, next.nativeCalls)
}

func TestCachedDisabledWithZeroTTL(t *testing.T) {
	next := &countingFetcher{}
	c := NewCached(next, nil, 0, nil)
	ctx := context.Background()

	_, _ = c.GetNativeBalance(ctx, "0x2105", testOwner)
	_, _ = c.GetNativeBalance(ctx, "0x2105", testOwner)
	assert.Equal(t, 2, next.nativeCalls)
}
