package dust

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

func tok(symbol, value string) assets.Token {
	return assets.Token{
		Asset: assets.Asset{Symbol: symbol, Price: decimal.NewFromInt(1)},
		Value: decimal.RequireFromString(value),
	}
}

func symbols(list []assets.Token) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		out = append(out, t.Symbol)
	}
	return out
}

var eth = assets.Asset{Symbol: "ETH", Price: decimal.NewFromInt(2000)}

func TestParseThreshold(t *testing.T) {
	for in, want := range map[string]Threshold{
		"$10":   Threshold10,
		"10":    Threshold10,
		" 100 ": Threshold100,
		"$1000": Threshold1000,
		"MAX":   ThresholdMax,
		"max":   ThresholdMax,
	} {
		got, err := ParseThreshold(in)
		require.NoError(t, err, in)
		assert.Equal(t, want.Label, got.Label, in)
	}

	for _, in := range []string{"", "$50", "abc", "-10"} {
		_, err := ParseThreshold(in)
		assert.ErrorIs(t, err, ErrUnknownThreshold, in)
	}
}

func TestSelectMatchesDefinition(t *testing.T) {
	tokens := []assets.Token{
		tok("USDC", "5"), tok("DAI", "15"), tok("WETH", "0"), tok("ETH", "999.99"), tok("BIG", "5000"), tok("EDGE", "10"),
	}

	cases := map[string][]string{
		"$10":   {"USDC"},
		"$100":  {"USDC", "DAI", "EDGE"},
		"$1000": {"USDC", "DAI", "ETH", "EDGE"},
		"MAX":   {"USDC", "DAI", "ETH", "BIG", "EDGE"},
	}
	for label, want := range cases {
		th, err := ParseThreshold(label)
		require.NoError(t, err)
		assert.Equal(t, want, symbols(Select(tokens, th)), label)
	}
}

func TestScenarioTenDollarThreshold(t *testing.T) {
	s := NewSelection()
	key := wallet.Key{Address: common.HexToAddress("0x01"), ChainID: 84532}
	s.Reset(key, []assets.Token{tok("USDC", "5"), tok("DAI", "15")}, eth)

	assert.Equal(t, []string{"USDC"}, symbols(s.Inputs()))

	q := s.Quote()
	assert.Equal(t, "5.0000", q.FromAmount)
	assert.Equal(t, decimal.NewFromInt(5).Div(eth.Price).StringFixed(4), q.ToAmount)
	assert.Equal(t, "0.0025", q.ToAmount)
	assert.Equal(t, "ETH", q.ToSymbol)
}

func TestQuoteWithNothingSelected(t *testing.T) {
	q := NewQuote(nil, eth)
	assert.Equal(t, "0.0000", q.FromAmount)
	assert.Equal(t, "0.0000", q.ToAmount)
}

func TestToggleRemoveAndThreshold(t *testing.T) {
	s := NewSelection()
	key := wallet.Key{Address: common.HexToAddress("0x01"), ChainID: 84532}
	s.Reset(key, []assets.Token{tok("USDC", "5"), tok("DAI", "15")}, eth)

	require.NoError(t, s.Toggle("dai"))
	assert.Equal(t, []string{"USDC", "DAI"}, symbols(s.Inputs()))

	require.NoError(t, s.Toggle("USDC"))
	assert.Equal(t, []string{"DAI"}, symbols(s.Inputs()))

	assert.ErrorIs(t, s.Toggle("WETH"), ErrUnknownToken)

	s.Remove("DAI")
	s.Remove("DAI")
	assert.Empty(t, s.Inputs())

	s.SetThreshold(Threshold100)
	assert.Equal(t, []string{"USDC", "DAI"}, symbols(s.Inputs()))

	usdc := assets.Asset{Symbol: "USDC", Price: decimal.NewFromInt(1)}
	s.SetOutput(usdc)
	assert.Equal(t, "20.0000", s.Quote().ToAmount)
}

func TestResetOnAccountOrChainChange(t *testing.T) {
	s := NewSelection()
	a := wallet.Key{Address: common.HexToAddress("0x01"), ChainID: 84532}
	b := wallet.Key{Address: common.HexToAddress("0x02"), ChainID: 84532}

	s.Reset(a, []assets.Token{tok("USDC", "5")}, eth)
	assert.True(t, s.Matches(a))
	assert.False(t, s.Matches(b))

	s.SetThreshold(ThresholdMax)
	s.Reset(b, []assets.Token{tok("DAI", "50")}, eth)
	assert.True(t, s.Matches(b))
	assert.Equal(t, []string{"DAI"}, symbols(s.Inputs()))

	s.Clear()
	assert.False(t, s.Matches(b))
	snap := s.Snapshot()
	assert.Empty(t, snap.Address)
	assert.Equal(t, "MAX", snap.Threshold.Label)
}
