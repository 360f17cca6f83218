package assets

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendii-cash/sendii-client/internal/chains/chainstest"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/indexer"
)

var (
	owner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	usdc    = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	dai     = common.HexToAddress("0x50c5725949A6F0c72E6C4a641F24049A917EF0Cb")
	weth    = common.HexToAddress("0x4200000000000000000000000000000000000006")
	sepolia = uint64(constants.BaseSepoliaChainID)
)

type stubFetcher struct {
	chain    string
	native   *big.Int
	balances []indexer.TokenBalance
}

func (s *stubFetcher) GetWalletTokenBalances(_ context.Context, chain, _ string) ([]indexer.TokenBalance, error) {
	s.chain = chain
	return s.balances, nil
}

func (s *stubFetcher) GetNativeBalance(_ context.Context, chain, _ string) (*big.Int, error) {
	s.chain = chain
	return s.native, nil
}

func pow10(n int64) *big.Int { return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil) }

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(DefaultCatalogConfig())
	require.NoError(t, err)
	return c
}

func TestCatalogDefaults(t *testing.T) {
	c := newCatalog(t)

	assert.Equal(t, []uint64{constants.BaseMainnetChainID, constants.BaseSepoliaChainID}, c.ChainIDs())
	out, ok := c.DefaultOutput(sepolia)
	require.True(t, ok)
	assert.Equal(t, "ETH", out.Symbol)
	assert.True(t, out.Price.Equal(decimal.NewFromInt(2000)))

	a, ok := c.ByAddress(sepolia, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913")
	require.True(t, ok)
	assert.Equal(t, "USDC", a.Symbol)
	assert.Equal(t, uint8(6), a.Decimals)

	_, ok = c.BySymbol(1, "USDC")
	assert.False(t, ok)
}

func TestCatalogRejectsBadConfig(t *testing.T) {
	cfg := DefaultCatalogConfig()
	cfg.Prices["USDC"] = "cheap"
	_, err := NewCatalog(cfg)
	assert.Error(t, err)

	cfg = DefaultCatalogConfig()
	cfg.Tokens["abc"] = nil
	_, err = NewCatalog(cfg)
	assert.Error(t, err)
}

func TestRefreshMapsOntoCatalog(t *testing.T) {
	svc, err := chainstest.NewService(nil)
	require.NoError(t, err)

	f := &stubFetcher{
		native: pow10(15), // 0.001 ETH
		balances: []indexer.TokenBalance{
			{TokenAddress: "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", Decimals: 6, Balance: big.NewInt(5_000_000)},
			{TokenAddress: dai.Hex(), Decimals: 18, Balance: pow10(13)}, // 0.00001 rounds to zero
			{TokenAddress: "0x9999999999999999999999999999999999999999", Decimals: 18, Balance: pow10(18)},
		},
	}
	m, err := NewManager(newCatalog(t), f, svc)
	require.NoError(t, err)

	tokens, err := m.Refresh(context.Background(), owner, sepolia)
	require.NoError(t, err)
	assert.Equal(t, "0x14a34", f.chain)

	require.Len(t, tokens, 2)
	assert.Equal(t, "USDC", tokens[0].Symbol)
	assert.Equal(t, "5.0000", tokens[0].BalanceHuman)
	assert.Equal(t, "$5.00", tokens[0].ValueDisplay)

	assert.Equal(t, "ETH", tokens[1].Symbol)
	assert.True(t, tokens[1].IsNative())
	assert.Equal(t, "0.0010", tokens[1].BalanceHuman)
	assert.True(t, tokens[1].Value.Equal(decimal.NewFromInt(2)))
}

func TestRefreshUnsupportedChain(t *testing.T) {
	svc, err := chainstest.NewService(nil)
	require.NoError(t, err)
	m, err := NewManager(newCatalog(t), &stubFetcher{}, svc)
	require.NoError(t, err)

	_, err = m.Refresh(context.Background(), owner, 1)
	assert.Error(t, err)
}

func TestOnChainFetcher(t *testing.T) {
	fake := chainstest.New(sepolia)
	fake.SetNative(owner, pow10(16))
	fake.SetTokenBalance(usdc, owner, big.NewInt(2_500_000))
	fake.SetTokenBalance(weth, owner, pow10(15))

	svc, err := chainstest.NewService(map[uint64]*chainstest.Client{sepolia: fake})
	require.NoError(t, err)
	f := NewOnChainFetcher(svc, newCatalog(t))
	ctx := context.Background()

	bals, err := f.GetWalletTokenBalances(ctx, "0x14a34", owner.Hex())
	require.NoError(t, err)
	require.Len(t, bals, 2)
	assert.Equal(t, "USDC", bals[0].Symbol)
	assert.Equal(t, int64(2_500_000), bals[0].Balance.Int64())
	assert.Equal(t, "WETH", bals[1].Symbol)

	native, err := f.GetNativeBalance(ctx, "0x14a34", owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, pow10(16), native)

	_, err = f.GetNativeBalance(ctx, "0x1", owner.Hex())
	assert.Error(t, err)
}

func TestEnsureMetadataFillsAddressOnlyEntries(t *testing.T) {
	cfg := DefaultCatalogConfig()
	cfg.Tokens["84532"] = append(cfg.Tokens["84532"], Asset{Address: "0x00000000000000000000000000000000000000aa"})
	c, err := NewCatalog(cfg)
	require.NoError(t, err)

	require.NoError(t, c.EnsureMetadata(context.Background(), sepolia, chainstest.New(sepolia), 0))

	a, ok := c.ByAddress(sepolia, "0x00000000000000000000000000000000000000aa")
	require.True(t, ok)
	assert.NotEmpty(t, a.Symbol)
	assert.Equal(t, uint8(18), a.Decimals)
}

func TestBalanceOfZeroOwner(t *testing.T) {
	bal, err := BalanceOf(context.Background(), chainstest.New(sepolia), usdc, common.Address{})
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}
