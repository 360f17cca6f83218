package main

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/ramp"
)

func TestPrintQuote(t *testing.T) {
	p := ramp.DefaultProviders()[0]

	var buf bytes.Buffer
	require.NoError(t, printQuote(&buf, p, "1500", ""))
	assert.Equal(t, "1500 KES = 10.00 (rate 150 via M-Pesa)\n", buf.String())

	buf.Reset()
	require.NoError(t, printQuote(&buf, p, "", "10"))
	assert.Equal(t, "10 = 1500.00 KES (rate 150 via M-Pesa)\n", buf.String())

	assert.Error(t, printQuote(&buf, p, "abc", ""))
}

func TestPrintBalances(t *testing.T) {
	usdc := assets.Token{
		Asset:        assets.Asset{Symbol: "USDC", Decimals: 6, Price: decimal.NewFromInt(1)},
		Balance:      big.NewInt(5_000_000),
		BalanceHuman: "5.0000",
		Value:        decimal.NewFromInt(5),
		ValueDisplay: "$5.00",
	}
	eth := assets.Asset{Symbol: "ETH", Price: decimal.NewFromInt(2000)}

	var buf bytes.Buffer
	printBalances(&buf, []assets.Token{usdc}, []assets.Token{usdc}, dust.DefaultThreshold(), eth)
	out := buf.String()
	assert.Contains(t, out, "USDC    5.0000   $5.00")
	assert.Contains(t, out, "dust under $10: 1 token(s), 5.0000 -> 0.0025 ETH")
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "sendii-client dev (commit none, built unknown)\n", buf.String())
}

func TestQuoteNeedsOneAmount(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"quote", "--provider", "mpesa"})
	assert.Error(t, cmd.Execute())
}
