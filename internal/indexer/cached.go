package indexer

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/redis/go-redis/v9"

	"github.com/sendii-cash/sendii-client/internal/metrics"
)

const balancesKeyPrefix = "c/balances"

// RedisKV is the part of *redis.Client the cache uses.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type memEntry struct {
	value   []byte
	expires time.Time
}

// Cached fronts a Fetcher with a short-lived cache. Redis is used when
// configured, otherwise entries stay in process memory. Cache errors only
// cost a refetch.
type Cached struct {
	next    Fetcher
	rdb     RedisKV
	ttl     time.Duration
	metrics *metrics.Metrics

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

func NewCached(next Fetcher, rdb RedisKV, ttl time.Duration, m *metrics.Metrics) *Cached {
	return &Cached{
		next:    next,
		rdb:     rdb,
		ttl:     ttl,
		metrics: m,
		mem:     map[string]memEntry{},
		now:     time.Now,
	}
}

type cachedTokenBalance struct {
	TokenAddress string `json:"tokenAddress"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Decimals     uint8  `json:"decimals"`
	Balance      string `json:"balance"`
}

func (c *Cached) GetWalletTokenBalances(ctx context.Context, chain, address string) ([]TokenBalance, error) {
	key := cacheKey(chain, address, "erc20")
	if raw, ok := c.load(ctx, key); ok {
		var rows []cachedTokenBalance
		if err := json.Unmarshal(raw, &rows); err == nil {
			out := make([]TokenBalance, 0, len(rows))
			for _, r := range rows {
				bal, ok := new(big.Int).SetString(r.Balance, 10)
				if !ok {
					bal = new(big.Int)
				}
				out = append(out, TokenBalance{r.TokenAddress, r.Symbol, r.Name, r.Decimals, bal})
			}
			c.metrics.IndexerCacheHit("erc20")
			return out, nil
		}
	}

	out, err := c.next.GetWalletTokenBalances(ctx, chain, address)
	if err != nil {
		return nil, err
	}
	rows := make([]cachedTokenBalance, 0, len(out))
	for _, t := range out {
		rows = append(rows, cachedTokenBalance{t.TokenAddress, t.Symbol, t.Name, t.Decimals, t.Balance.String()})
	}
	if raw, err := json.Marshal(rows); err == nil {
		c.store(ctx, key, raw)
	}
	return out, nil
}

func (c *Cached) GetNativeBalance(ctx context.Context, chain, address string) (*big.Int, error) {
	key := cacheKey(chain, address, "native")
	if raw, ok := c.load(ctx, key); ok {
		if bal, ok := new(big.Int).SetString(string(raw), 10); ok {
			c.metrics.IndexerCacheHit("native")
			return bal, nil
		}
	}

	bal, err := c.next.GetNativeBalance(ctx, chain, address)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, []byte(bal.String()))
	return bal, nil
}

// Invalidate drops cached balances for address on chain, e.g. after a transaction.
func (c *Cached) Invalidate(ctx context.Context, chain, address string) {
	keys := []string{cacheKey(chain, address, "erc20"), cacheKey(chain, address, "native")}

	c.mu.Lock()
	for _, k := range keys {
		delete(c.mem, k)
	}
	c.mu.Unlock()

	if c.rdb != nil {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Warn("balance cache invalidate failed", "error", err)
		}
	}
}

func (c *Cached) load(ctx context.Context, key string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			return raw, true
		case !errors.Is(err, redis.Nil):
			log.Warn("balance cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.mem[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		delete(c.mem, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cached) store(ctx context.Context, key string, raw []byte) {
	if c.ttl <= 0 {
		return
	}
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			log.Warn("balance cache write failed", "key", key, "error", err)
		}
		return
	}

	c.mu.Lock()
	c.mem[key] = memEntry{value: raw, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func cacheKey(chain, address, kind string) string {
	return balancesKeyPrefix + "/" + strings.ToLower(chain) + "/" + strings.ToLower(address) + "/" + kind
}
