package utils

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

// ToDecimal scales a raw token amount by 10^decimals.
func ToDecimal(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatUnitsTrim converts a token balance to a human string:
// - divides by 10^decimals
// - truncates to maxFrac decimal places
// - removes trailing zeros
//
//	balance=1234500000000000000, decimals=18 -> "1.2345"
//	balance=1000000000000000000, decimals=18 -> "1"
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}
	if maxFrac < 0 {
		maxFrac = 0
	}
	s := ToDecimal(amount, decimals).Truncate(int32(maxFrac)).String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// ParseUnits converts a human amount ("1.5") to raw units. Extra precision and
// exponent notation are errors.
func ParseUnits(human string, decimals uint8) (*big.Int, error) {
	human = strings.TrimSpace(human)
	if strings.ContainsAny(human, "eE") {
		return nil, errors.Newf("parse amount %q: exponent notation is not accepted", human)
	}
	d, err := decimal.NewFromString(human)
	if err != nil {
		return nil, errors.Wrapf(err, "parse amount %q", human)
	}
	if d.Sign() < 0 {
		return nil, errors.Newf("negative amount %q", human)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, errors.Newf("amount %q has more than %d decimals", human, decimals)
	}
	return scaled.BigInt(), nil
}

func FormatUSD(v decimal.Decimal) string {
	return "$" + v.StringFixed(2)
}
