package dust

import (
	"github.com/sendii-cash/sendii-client/internal/assets"
)

// Select returns the tokens with value > 0 that fall under the threshold, in input order.
func Select(tokens []assets.Token, t Threshold) []assets.Token {
	out := make([]assets.Token, 0, len(tokens))
	for _, tok := range tokens {
		if t.Admits(tok.Value) {
			out = append(out, tok)
		}
	}
	return out
}
