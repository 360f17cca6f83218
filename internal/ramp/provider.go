package ramp

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrUnknownProvider = errors.New("unknown payment provider")
	ErrUnknownToken    = errors.New("unsupported ramp token")
)

// Provider is a mobile-money rail. ExchangeRate is fiat units per one
// reference crypto unit.
type Provider struct {
	ID           string          `json:"id" mapstructure:"id"`
	Name         string          `json:"name" mapstructure:"name"`
	Country      string          `json:"country" mapstructure:"country"`
	Region       string          `json:"region" mapstructure:"region"`
	PhonePrefix  string          `json:"phonePrefix" mapstructure:"phonePrefix"`
	Currency     string          `json:"currency" mapstructure:"currency"`
	ExchangeRate decimal.Decimal `json:"exchangeRate" mapstructure:"-"`
	// RateText is the config form of ExchangeRate.
	RateText string `json:"-" mapstructure:"exchangeRate"`
}

func DefaultProviders() []Provider {
	return []Provider{
		{ID: "mpesa", Name: "M-Pesa", Country: "Kenya", Region: "KE", PhonePrefix: "+254", Currency: "KES", ExchangeRate: decimal.NewFromInt(150)},
		{ID: "mtn", Name: "MTN Mobile Money", Country: "Uganda", Region: "UG", PhonePrefix: "+256", Currency: "UGX", ExchangeRate: decimal.NewFromInt(3700)},
		{ID: "airtel", Name: "Airtel Money", Country: "Nigeria", Region: "NG", PhonePrefix: "+234", Currency: "NGN", ExchangeRate: decimal.NewFromInt(1500)},
	}
}

func DefaultTokens() []string { return []string{"USDC", "USDT", "DAI"} }

// Registry is the static provider and token configuration.
type Registry struct {
	providers []Provider
	tokens    []string
}

// NewRegistry validates providers; an empty list means the defaults.
func NewRegistry(providers []Provider, tokens []string) (*Registry, error) {
	if len(providers) == 0 {
		providers = DefaultProviders()
	}
	if len(tokens) == 0 {
		tokens = DefaultTokens()
	}

	seen := map[string]bool{}
	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		p.Region = strings.ToUpper(strings.TrimSpace(p.Region))
		p.PhonePrefix = strings.TrimSpace(p.PhonePrefix)
		if p.ID == "" {
			return nil, errors.New("provider id is empty")
		}
		if seen[p.ID] {
			return nil, errors.Newf("duplicate provider %q", p.ID)
		}
		seen[p.ID] = true
		if p.RateText != "" {
			rate, err := decimal.NewFromString(strings.TrimSpace(p.RateText))
			if err != nil {
				return nil, errors.Wrapf(err, "provider %s exchange rate", p.ID)
			}
			p.ExchangeRate = rate
		}
		if p.ExchangeRate.Sign() <= 0 {
			return nil, errors.Newf("provider %s: exchange rate must be positive", p.ID)
		}
		if !strings.HasPrefix(p.PhonePrefix, "+") {
			return nil, errors.Newf("provider %s: phone prefix must start with +", p.ID)
		}
		if len(p.Region) != 2 {
			return nil, errors.Newf("provider %s: region must be an ISO-3166 alpha-2 code", p.ID)
		}
		out = append(out, p)
	}

	normTokens := make([]string, 0, len(tokens))
	for _, t := range tokens {
		normTokens = append(normTokens, strings.ToUpper(strings.TrimSpace(t)))
	}
	return &Registry{providers: out, tokens: normTokens}, nil
}

func (r *Registry) Providers() []Provider {
	return append([]Provider(nil), r.providers...)
}

func (r *Registry) Tokens() []string {
	return append([]string(nil), r.tokens...)
}

func (r *Registry) Provider(id string) (Provider, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range r.providers {
		if p.ID == id {
			return p, nil
		}
	}
	return Provider{}, errors.Wrapf(ErrUnknownProvider, "%q", id)
}

func (r *Registry) Token(symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, t := range r.tokens {
		if t == symbol {
			return t, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownToken, "%q", symbol)
}
