package dust

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var ErrUnknownThreshold = errors.New("unknown threshold")

// Threshold is an upper bound on a token's fiat value for it to count as dust.
type Threshold struct {
	Label     string          `json:"label"`
	Limit     decimal.Decimal `json:"limit"`
	Unbounded bool            `json:"unbounded"`
}

// Admits reports whether a token worth value is dust under t.
func (t Threshold) Admits(value decimal.Decimal) bool {
	if value.Sign() <= 0 {
		return false
	}
	return t.Unbounded || value.LessThan(t.Limit)
}

var (
	Threshold10   = Threshold{Label: "$10", Limit: decimal.NewFromInt(10)}
	Threshold100  = Threshold{Label: "$100", Limit: decimal.NewFromInt(100)}
	Threshold1000 = Threshold{Label: "$1000", Limit: decimal.NewFromInt(1000)}
	ThresholdMax  = Threshold{Label: "MAX", Unbounded: true}
)

// Thresholds lists the selectable options in display order.
func Thresholds() []Threshold {
	return []Threshold{Threshold10, Threshold100, Threshold1000, ThresholdMax}
}

func DefaultThreshold() Threshold { return Threshold10 }

// ParseThreshold accepts "$10", "10", "max" and the like. Only the enumerated options are valid.
func ParseThreshold(s string) (Threshold, error) {
	raw := strings.TrimSpace(s)
	if strings.EqualFold(raw, ThresholdMax.Label) {
		return ThresholdMax, nil
	}
	v, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
	if err != nil {
		return Threshold{}, errors.Wrapf(ErrUnknownThreshold, "%q", s)
	}
	for _, t := range Thresholds() {
		if !t.Unbounded && t.Limit.Equal(v) {
			return t, nil
		}
	}
	return Threshold{}, errors.Wrapf(ErrUnknownThreshold, "%q", s)
}
