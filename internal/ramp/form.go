package ramp

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/sendii-cash/sendii-client/internal/history"
)

var ErrValidation = errors.New("invalid ramp form")

// ValidationError carries the user-facing message for a rejected form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// Form is a deposit, withdraw or pay submission.
//
// Deposit reads FiatAmount, Withdraw reads CryptoAmount and Pay reads
// CryptoAmount as the amount to send. Phone is the sender's mobile-money number
// for deposit and withdraw; RecipientPhone is used by pay.
type Form struct {
	Kind           history.Kind `json:"kind"`
	Provider       string       `json:"provider"`
	Token          string       `json:"token"`
	FiatAmount     string       `json:"fiatAmount,omitempty"`
	CryptoAmount   string       `json:"cryptoAmount,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	RecipientPhone string       `json:"recipientPhone,omitempty"`
	Note           string       `json:"note,omitempty"`
}

// validated is a form with amounts filled in and phones normalized.
type validated struct {
	kind     history.Kind
	provider Provider
	token    string
	fiat     string
	crypto   string
	phone    string
	note     string
}

func (r *Registry) validate(f Form) (validated, error) {
	kind, ok := history.ParseKind(string(f.Kind))
	if !ok {
		return validated{}, invalid("kind", fmt.Sprintf("Unknown transaction type %q", f.Kind))
	}
	p, err := r.Provider(f.Provider)
	if err != nil {
		return validated{}, invalid("provider", "Please select a payment provider")
	}
	token, err := r.Token(f.Token)
	if err != nil {
		return validated{}, invalid("token", "Please select a supported token")
	}

	v := validated{kind: kind, provider: p, token: token, note: strings.TrimSpace(f.Note)}
	phoneErr := invalid("phone", fmt.Sprintf("Please enter a valid %s phone number", p.Country))

	switch kind {
	case history.KindDeposit:
		if !positiveAmount(f.FiatAmount) {
			return validated{}, invalid("fiatAmount", "Please enter a valid amount")
		}
		v.fiat = f.FiatAmount
		v.crypto = FiatToCrypto(f.FiatAmount, p.ExchangeRate)
		if v.phone, err = ValidatePhone(f.Phone, p); err != nil {
			return validated{}, phoneErr
		}
	case history.KindWithdraw:
		if !positiveAmount(f.CryptoAmount) {
			return validated{}, invalid("cryptoAmount", "Please enter a valid crypto amount")
		}
		v.crypto = f.CryptoAmount
		v.fiat = CryptoToFiat(f.CryptoAmount, p.ExchangeRate)
		if v.phone, err = ValidatePhone(f.Phone, p); err != nil {
			return validated{}, phoneErr
		}
	case history.KindPay:
		if !positiveAmount(f.CryptoAmount) {
			return validated{}, invalid("cryptoAmount", "Please enter a valid amount")
		}
		v.crypto = f.CryptoAmount
		v.fiat = CryptoToFiat(f.CryptoAmount, p.ExchangeRate)
		if v.phone, err = ValidatePhone(f.RecipientPhone, p); err != nil {
			phoneErr.(*ValidationError).Field = "recipientPhone"
			return validated{}, phoneErr
		}
	}
	return v, nil
}

func (v validated) title() string {
	switch v.kind {
	case history.KindDeposit:
		return "Confirm Deposit"
	case history.KindWithdraw:
		return "Confirm Withdrawal"
	default:
		return "Confirm Payment"
	}
}

func (v validated) description() string {
	switch v.kind {
	case history.KindDeposit:
		return fmt.Sprintf("You will receive %s %s after payment confirmation", v.crypto, v.token)
	case history.KindWithdraw:
		return fmt.Sprintf("%s %s will be sent to your %s account", v.fiat, v.provider.Currency, v.provider.Name)
	default:
		return fmt.Sprintf("%s %s will be sent to %s", v.crypto, v.token, v.phone)
	}
}

func (v validated) successMessage() string {
	switch v.kind {
	case history.KindDeposit:
		return fmt.Sprintf("%s %s will be deposited to your wallet", v.crypto, v.token)
	case history.KindWithdraw:
		return fmt.Sprintf("%s %s will be sent to %s via %s", v.provider.Currency, v.fiat, v.phone, v.provider.Name)
	default:
		return fmt.Sprintf("%s %s sent to %s", v.crypto, v.token, v.phone)
	}
}
