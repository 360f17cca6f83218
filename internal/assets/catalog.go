package assets

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/quantumauth-io/quantum-go-utils/log"
	"github.com/shopspring/decimal"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/constants"
)

// CatalogConfig is the config shape: per chain id, the token list, plus a
// price table keyed by symbol.
type CatalogConfig struct {
	Tokens       map[string][]Asset `mapstructure:"tokens"` // chain id (decimal string) -> assets
	Prices       map[string]string  `mapstructure:"prices"` // symbol -> USD
	OutputSymbol string             `mapstructure:"outputSymbol"`
}

// Catalog is the static token list per chain. Entries configured by address
// only get their metadata from chain once, via EnsureMetadata.
type Catalog struct {
	mu           sync.RWMutex
	byChain      map[uint64][]Asset
	prices       map[string]decimal.Decimal
	outputSymbol string
}

func DefaultCatalogConfig() CatalogConfig {
	base := []Asset{
		{Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
		{Address: "0x50c5725949A6F0c72E6C4a641F24049A917EF0Cb", Symbol: "DAI", Name: "Dai Stablecoin", Decimals: 18},
		{Address: "0x4200000000000000000000000000000000000006", Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18},
		{Address: constants.NativeAddr, Symbol: constants.NativeSymbol, Name: constants.NativeName, Decimals: constants.NativeDecimals},
	}
	return CatalogConfig{
		Tokens: map[string][]Asset{
			"8453":  base,
			"84532": base,
		},
		Prices: map[string]string{
			"USDC": "1.0",
			"DAI":  "1.0",
			"WETH": "2000",
			"ETH":  "2000",
		},
		OutputSymbol: constants.NativeSymbol,
	}
}

func NewCatalog(cfg CatalogConfig) (*Catalog, error) {
	c := &Catalog{
		byChain:      map[uint64][]Asset{},
		prices:       map[string]decimal.Decimal{},
		outputSymbol: strings.ToUpper(strings.TrimSpace(cfg.OutputSymbol)),
	}
	if c.outputSymbol == "" {
		c.outputSymbol = constants.NativeSymbol
	}

	for sym, raw := range cfg.Prices {
		p, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, errors.Wrapf(err, "price for %s", sym)
		}
		if p.Sign() < 0 {
			return nil, errors.Newf("price for %s is negative", sym)
		}
		c.prices[strings.ToUpper(strings.TrimSpace(sym))] = p
	}

	for chainKey, list := range cfg.Tokens {
		chainID, err := parseChainKey(chainKey)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		out := make([]Asset, 0, len(list))
		for _, a := range list {
			addr, err := normalizeAddress(a.Address)
			if err != nil {
				return nil, errors.Wrapf(err, "catalog[%s]", chainKey)
			}
			a.Address = addr
			a.Symbol = strings.TrimSpace(a.Symbol)
			if a.Symbol != "" {
				key := strings.ToUpper(a.Symbol)
				if seen[key] {
					return nil, errors.Newf("catalog[%s]: duplicate symbol %s", chainKey, a.Symbol)
				}
				seen[key] = true
				a.Price = c.priceOf(a.Symbol)
			}
			out = append(out, a)
		}
		c.byChain[chainID] = out
	}
	return c, nil
}

// priceOf returns the configured USD price; unknown symbols are pegged at 1.
func (c *Catalog) priceOf(symbol string) decimal.Decimal {
	if p, ok := c.prices[strings.ToUpper(symbol)]; ok {
		return p
	}
	return decimal.NewFromInt(1)
}

// EnsureMetadata fills symbol, decimals and name for entries configured by
// address only. fetchDelay spaces out the RPC calls.
func (c *Catalog) EnsureMetadata(ctx context.Context, chainID uint64, client chains.EVMClient, fetchDelay time.Duration) error {
	c.mu.RLock()
	list := make([]Asset, len(c.byChain[chainID]))
	copy(list, c.byChain[chainID])
	c.mu.RUnlock()

	changed := false
	for i, a := range list {
		if a.Symbol != "" && a.Decimals != 0 {
			continue
		}
		if fetchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(fetchDelay):
			}
		}
		fetched, err := FetchAsset(ctx, client, a.Address)
		if err != nil {
			return errors.Wrapf(err, "fetch asset %d[%s]", chainID, a.Address)
		}
		if a.Symbol != "" {
			fetched.Symbol = a.Symbol
		}
		if a.Name != "" {
			fetched.Name = a.Name
		}
		fetched.LogoURI = a.LogoURI
		fetched.Price = c.priceOf(fetched.Symbol)
		list[i] = fetched
		changed = true
		log.Info("catalog token resolved", "chainId", chainID, "address", fetched.Address, "symbol", fetched.Symbol)
	}

	if changed {
		c.mu.Lock()
		c.byChain[chainID] = list
		c.mu.Unlock()
	}
	return nil
}

func (c *Catalog) Supports(chainID uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byChain[chainID]
	return ok
}

// Assets lists the catalog for chainID in configured order.
func (c *Catalog) Assets(chainID uint64) []Asset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src := c.byChain[chainID]
	out := make([]Asset, len(src))
	copy(out, src)
	return out
}

func (c *Catalog) BySymbol(chainID uint64, symbol string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.byChain[chainID] {
		if a.Symbol != "" && strings.EqualFold(a.Symbol, symbol) {
			return a, true
		}
	}
	return Asset{}, false
}

func (c *Catalog) ByAddress(chainID uint64, address string) (Asset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.byChain[chainID] {
		if strings.EqualFold(a.Address, address) {
			return a, true
		}
	}
	return Asset{}, false
}

// DefaultOutput is the token consolidation swaps into unless the user picks another.
func (c *Catalog) DefaultOutput(chainID uint64) (Asset, bool) {
	return c.BySymbol(chainID, c.outputSymbol)
}

func (c *Catalog) ChainIDs() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]uint64, 0, len(c.byChain))
	for id := range c.byChain {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
