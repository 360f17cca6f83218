package assets

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/indexer"
	"github.com/sendii-cash/sendii-client/internal/utils"
)

// invalidator is implemented by caching fetchers.
type invalidator interface {
	Invalidate(ctx context.Context, chain, address string)
}

// Manager turns raw balances into priced catalog tokens for one account.
type Manager struct {
	catalog *Catalog
	fetcher indexer.Fetcher
	chains  *chains.Service
}

func NewManager(catalog *Catalog, fetcher indexer.Fetcher, chainService *chains.Service) (*Manager, error) {
	if catalog == nil {
		return nil, errors.New("assets: catalog is nil")
	}
	if fetcher == nil {
		return nil, errors.New("assets: fetcher is nil")
	}
	if chainService == nil {
		return nil, errors.New("assets: chain service is nil")
	}
	return &Manager{catalog: catalog, fetcher: fetcher, chains: chainService}, nil
}

func (m *Manager) Catalog() *Catalog { return m.catalog }

// Refresh fetches native and token balances for owner on chainID and maps them
// onto the catalog. Tokens whose balance rounds to zero are dropped.
func (m *Manager) Refresh(ctx context.Context, owner common.Address, chainID uint64) ([]Token, error) {
	resolved, err := m.chains.ResolveNetworkByChainID(chainID)
	if err != nil {
		return nil, err
	}
	address := owner.Hex()

	native, err := m.fetcher.GetNativeBalance(ctx, resolved.IndexerChain, address)
	if err != nil {
		return nil, errors.Wrap(err, "fetch native balance")
	}
	balances, err := m.fetcher.GetWalletTokenBalances(ctx, resolved.IndexerChain, address)
	if err != nil {
		return nil, errors.Wrap(err, "fetch token balances")
	}

	byAddr := make(map[string]indexer.TokenBalance, len(balances))
	for _, b := range balances {
		byAddr[strings.ToLower(b.TokenAddress)] = b
	}

	out := make([]Token, 0, len(byAddr)+1)
	for _, a := range m.catalog.Assets(chainID) {
		if a.Symbol == "" {
			continue
		}
		tok := Token{Asset: a}
		if isNative(a.Address) {
			tok.Balance = native
		} else {
			b, ok := byAddr[strings.ToLower(a.Address)]
			if !ok || b.Balance == nil {
				continue
			}
			if b.Decimals != 0 {
				tok.Decimals = b.Decimals
			}
			tok.Balance = b.Balance
		}

		human := utils.ToDecimal(tok.Balance, tok.Decimals).Round(constants.BalanceDisplayDecimals)
		if human.Sign() <= 0 {
			continue
		}
		tok.BalanceHuman = human.StringFixed(constants.BalanceDisplayDecimals)
		tok.Value = human.Mul(a.Price).Round(constants.FiatDisplayDecimals)
		tok.ValueDisplay = utils.FormatUSD(tok.Value)
		out = append(out, tok)
	}

	log.Info("portfolio refreshed", "address", address, "chainId", chainID, "tokens", len(out))
	return out, nil
}

// Invalidate drops cached balances so the next Refresh reads fresh state.
func (m *Manager) Invalidate(ctx context.Context, owner common.Address, chainID uint64) {
	inv, ok := m.fetcher.(invalidator)
	if !ok {
		return
	}
	resolved, err := m.chains.ResolveNetworkByChainID(chainID)
	if err != nil {
		return
	}
	inv.Invalidate(ctx, resolved.IndexerChain, owner.Hex())
}

func isNative(addr string) bool {
	return strings.EqualFold(strings.TrimSpace(addr), constants.NativeAddr)
}

func parseChainKey(s string) (uint64, error) {
	s = normalizeNetworkKey(s)
	var (
		id  uint64
		err error
	)
	if strings.HasPrefix(s, "0x") {
		id, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		id, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid chain id %q", s)
	}
	return id, nil
}

func normalizeNetworkKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAddress => checksummed canonical form
func normalizeAddress(addr string) (string, error) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", errors.New("empty address")
	}
	if !strings.HasPrefix(a, "0x") && !strings.HasPrefix(a, "0X") {
		a = "0x" + a
	}
	a = strings.ToLower(a)
	if !common.IsHexAddress(a) {
		return "", errors.Newf("invalid address: %q", addr)
	}
	return common.HexToAddress(a).Hex(), nil
}
