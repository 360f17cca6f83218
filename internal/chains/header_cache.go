package chains

import (
	"context"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/quantumauth-io/quantum-go-utils/retry"
)

// HeaderCache serves HeaderByNumber(nil) from a background-refreshed copy of
// the latest header. Fee resolution asks for it on every transaction.
type HeaderCache struct {
	latestHeader             atomic.Pointer[types.Header]
	timeReceivedLatestHeader atomic.Pointer[time.Time]
	EVMClient
}

func NewHeaderCache(ctx context.Context, client EVMClient, refresh time.Duration) (*HeaderCache, error) {
	hc := &HeaderCache{EVMClient: client}

	if err := hc.getLatestHeaderFromChain(ctx); err != nil {
		return nil, err
	}

	go maintainLatestHeaderFromChain(ctx, hc, refresh)
	return hc, nil
}

func maintainLatestHeaderFromChain(ctx context.Context, hc *HeaderCache, duration time.Duration) {
	cfg := retry.DefaultConfig()
	cfg.MaxDelayBeforeRetrying = duration
	cfg.InitialDelayBeforeRetrying = duration / 10

	timer := time.NewTimer(duration)
	defer timer.Stop()
	numCallsToChain := 0
	for {
		timer.Reset(duration)
		select {
		case <-ctx.Done():
			log.Info("header refresher exiting", "numCallsToChain", numCallsToChain)
			return
		case <-timer.C:
			_, _ = retry.Retry(ctx, cfg,
				func(ctx context.Context) ([]interface{}, error) {
					numCallsToChain++
					return nil, hc.getLatestHeaderFromChain(ctx)
				},
				nil, // always retry
				"get latest header from chain")
		}
	}
}

func (hc *HeaderCache) getLatestHeaderFromChain(ctx context.Context) error {
	header, err := hc.EVMClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "get latest header from chain")
	}
	now := time.Now().UTC()
	hc.latestHeader.Store(header)
	hc.timeReceivedLatestHeader.Store(&now)
	return nil
}

// LatestHeaderAge reports how long ago the cached header was fetched.
func (hc *HeaderCache) LatestHeaderAge() time.Duration {
	t := hc.timeReceivedLatestHeader.Load()
	if t == nil {
		return 0
	}
	return time.Since(*t)
}

func (hc *HeaderCache) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if number == nil {
		if h := hc.latestHeader.Load(); h != nil {
			return h, nil
		}
	}
	return hc.EVMClient.HeaderByNumber(ctx, number)
}

func (hc *HeaderCache) Close() {
	safeClose(hc.EVMClient)
}
