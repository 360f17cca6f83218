package assets

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Asset is a catalog entry: a token the agent knows how to price.
type Asset struct {
	Address  string          `json:"address" mapstructure:"address"` // checksummed
	Symbol   string          `json:"symbol" mapstructure:"symbol"`
	Decimals uint8           `json:"decimals" mapstructure:"decimals"`
	Name     string          `json:"name,omitempty" mapstructure:"name"`
	Price    decimal.Decimal `json:"price" mapstructure:"-"`

	LogoURI string `json:"logoUri,omitempty" mapstructure:"logoUri"`
}

// Token is an Asset with a balance for the connected account. Numeric fields
// travel next to their display strings; nothing downstream re-parses the strings.
type Token struct {
	Asset

	Balance      *big.Int        `json:"balance"`
	BalanceHuman string          `json:"balanceHuman"`
	Value        decimal.Decimal `json:"value"`
	ValueDisplay string          `json:"valueDisplay"`
}

func (t Token) IsNative() bool { return isNative(t.Address) }
