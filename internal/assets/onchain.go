package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/indexer"
)

const sourceChain = "chain"

// OnChainFetcher answers indexer queries with balanceOf calls on catalog tokens.
// It is the fallback when no indexing API key is configured.
type OnChainFetcher struct {
	chains  *chains.Service
	catalog *Catalog
}

var _ indexer.Fetcher = (*OnChainFetcher)(nil)

func NewOnChainFetcher(chainService *chains.Service, catalog *Catalog) *OnChainFetcher {
	return &OnChainFetcher{chains: chainService, catalog: catalog}
}

func (f *OnChainFetcher) client(ctx context.Context, chain string) (chains.ResolvedChain, chains.EVMClient, error) {
	resolved, err := f.chains.ResolveNetworkByIndexerChain(chain)
	if err != nil {
		return chains.ResolvedChain{}, nil, err
	}
	c, err := f.chains.ClientsForNetwork(ctx, resolved.NetworkName)
	return resolved, c, err
}

func (f *OnChainFetcher) GetWalletTokenBalances(ctx context.Context, chain, address string) ([]indexer.TokenBalance, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.Newf("invalid address %q", address)
	}
	resolved, c, err := f.client(ctx, chain)
	if err != nil {
		return nil, err
	}
	owner := common.HexToAddress(address)

	var out []indexer.TokenBalance
	for _, a := range f.catalog.Assets(resolved.ChainID) {
		if isNative(a.Address) {
			continue
		}
		bal, err := BalanceOf(ctx, c, common.HexToAddress(a.Address), owner)
		if err != nil {
			// one bad token must not hide the rest of the portfolio
			log.Warn("balanceOf failed", "source", sourceChain, "token", a.Address, "error", err)
			continue
		}
		if bal.Sign() == 0 {
			continue
		}
		out = append(out, indexer.TokenBalance{
			TokenAddress: a.Address,
			Symbol:       a.Symbol,
			Name:         a.Name,
			Decimals:     a.Decimals,
			Balance:      bal,
		})
	}
	return out, nil
}

func (f *OnChainFetcher) GetNativeBalance(ctx context.Context, chain, address string) (*big.Int, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.Newf("invalid address %q", address)
	}
	_, c, err := f.client(ctx, chain)
	if err != nil {
		return nil, err
	}
	return BalanceOf(ctx, c, common.Address{}, common.HexToAddress(address))
}
