package ramp

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// ValidatePhone checks phone against the provider's country. Numbers without
// a leading "+" get the provider's dialing prefix. It returns the E.164 form.
func ValidatePhone(phone string, p Provider) (string, error) {
	raw := strings.TrimSpace(phone)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	full := raw
	if !strings.HasPrefix(raw, "+") {
		full = p.PhonePrefix + raw
	}

	num, err := phonenumbers.Parse(full, p.Region)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "parse phone"), ErrInvalidPhone)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	if region := phonenumbers.GetRegionCodeForNumber(num); !strings.EqualFold(region, p.Region) {
		return "", errors.Wrapf(ErrInvalidPhone, "number belongs to %s", region)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
