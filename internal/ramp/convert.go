package ramp

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sendii-cash/sendii-client/internal/constants"
)

// FiatToCrypto returns fiat/rate to two places, or "" when fiat is not a number.
func FiatToCrypto(fiat string, rate decimal.Decimal) string {
	v, ok := parseAmount(fiat)
	if !ok || rate.Sign() <= 0 {
		return ""
	}
	return v.Div(rate).StringFixed(constants.RampDecimals)
}

// CryptoToFiat returns crypto*rate to two places, or "" when crypto is not a number.
func CryptoToFiat(crypto string, rate decimal.Decimal) string {
	v, ok := parseAmount(crypto)
	if !ok {
		return ""
	}
	return v.Mul(rate).StringFixed(constants.RampDecimals)
}

// amountPattern is plain decimal notation: no exponent, at most 15 integer
// and 18 fractional digits.
var amountPattern = regexp.MustCompile(`^[+-]?(?:\d{1,15}(?:\.\d{0,18})?|\.\d{1,18})$`)

func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// positiveAmount reports whether s is a number greater than zero.
func positiveAmount(s string) bool {
	v, ok := parseAmount(s)
	return ok && v.Sign() > 0
}
