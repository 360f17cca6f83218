package dust

import (
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

var (
	ErrUnknownToken = errors.New("token not in portfolio")
	ErrStale        = errors.New("selection belongs to another account or chain")
)

// Quote is the aggregate a consolidation would produce.
type Quote struct {
	FromValue  decimal.Decimal `json:"fromValue"`
	FromAmount string          `json:"fromAmount"`
	ToAmount   string          `json:"toAmount"`
	ToSymbol   string          `json:"toSymbol"`
}

// NewQuote sums the input values and divides by the output price.
func NewQuote(inputs []assets.Token, output assets.Asset) Quote {
	total := decimal.Zero
	for _, t := range inputs {
		total = total.Add(t.Value)
	}
	q := Quote{
		FromValue:  total,
		FromAmount: total.StringFixed(constants.BalanceDisplayDecimals),
		ToAmount:   decimal.Zero.StringFixed(constants.BalanceDisplayDecimals),
		ToSymbol:   output.Symbol,
	}
	if total.Sign() > 0 && output.Price.Sign() > 0 {
		q.ToAmount = total.Div(output.Price).StringFixed(constants.BalanceDisplayDecimals)
	}
	return q
}

// Snapshot is a consistent copy of the selection for rendering.
type Snapshot struct {
	Address   string         `json:"address"`
	ChainID   uint64         `json:"chainId"`
	Tokens    []assets.Token `json:"tokens"`
	Inputs    []assets.Token `json:"inputs"`
	Output    assets.Asset   `json:"output"`
	Threshold Threshold      `json:"threshold"`
	Quote     Quote          `json:"quote"`
}

// Selection is the consolidation input set for one (address, chain).
type Selection struct {
	mu        sync.Mutex
	key       wallet.Key
	tokens    []assets.Token
	inputs    []assets.Token
	output    assets.Asset
	threshold Threshold
}

func NewSelection() *Selection {
	return &Selection{threshold: DefaultThreshold()}
}

// Reset replaces the fetched balances. The threshold survives; the input set is
// recomputed from it. The output is kept if it still exists on the new chain.
func (s *Selection) Reset(key wallet.Key, tokens []assets.Token, defaultOutput assets.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key.ChainID != key.ChainID || s.output.Symbol == "" {
		s.output = defaultOutput
	}
	s.key = key
	s.tokens = append([]assets.Token(nil), tokens...)
	s.inputs = Select(s.tokens, s.threshold)
}

// Clear forgets everything but the threshold, e.g. on disconnect.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = wallet.Key{}
	s.tokens = nil
	s.inputs = nil
	s.output = assets.Asset{}
}

func (s *Selection) Key() wallet.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Matches reports whether the selection was computed for key.
func (s *Selection) Matches(key wallet.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.key.IsZero() && s.key == key
}

func (s *Selection) SetThreshold(t Threshold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = t
	s.inputs = Select(s.tokens, t)
}

// Toggle adds the token to the inputs or removes it if already selected.
func (s *Selection) Toggle(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := indexOf(s.inputs, symbol); i >= 0 {
		s.inputs = append(s.inputs[:i:i], s.inputs[i+1:]...)
		return nil
	}
	i := indexOf(s.tokens, symbol)
	if i < 0 {
		return errors.Wrapf(ErrUnknownToken, "%q", symbol)
	}
	s.inputs = append(s.inputs, s.tokens[i])
	return nil
}

// Remove drops the token from the inputs. Removing an unselected token is a no-op.
func (s *Selection) Remove(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.inputs, symbol); i >= 0 {
		s.inputs = append(s.inputs[:i:i], s.inputs[i+1:]...)
	}
}

func (s *Selection) SetOutput(a assets.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = a
}

// Inputs returns a copy of the selected input tokens.
func (s *Selection) Inputs() []assets.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]assets.Token(nil), s.inputs...)
}

func (s *Selection) Output() assets.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.output
}

func (s *Selection) Threshold() Threshold {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threshold
}

func (s *Selection) Quote() Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewQuote(s.inputs, s.output)
}

func (s *Selection) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ChainID:   s.key.ChainID,
		Tokens:    append([]assets.Token{}, s.tokens...),
		Inputs:    append([]assets.Token{}, s.inputs...),
		Output:    s.output,
		Threshold: s.threshold,
		Quote:     NewQuote(s.inputs, s.output),
	}
	if !s.key.IsZero() {
		snap.Address = s.key.Address.Hex()
	}
	return snap
}

func indexOf(list []assets.Token, symbol string) int {
	for i, t := range list {
		if strings.EqualFold(t.Symbol, symbol) {
			return i
		}
	}
	return -1
}
