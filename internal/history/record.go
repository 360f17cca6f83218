package history

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindPay      Kind = "pay"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindDeposit:
		return KindDeposit, true
	case KindWithdraw:
		return KindWithdraw, true
	case KindPay:
		return KindPay, true
	}
	return "", false
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

// Record is one settled ramp transaction.
type Record struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	Amount         string    `json:"amount"`
	Token          string    `json:"token"`
	FiatAmount     string    `json:"fiatAmount"`
	Currency       string    `json:"currency,omitempty"`
	Phone          string    `json:"phone"`
	RecipientPhone string    `json:"recipientPhone,omitempty"`
	Provider       string    `json:"provider"`
	Note           string    `json:"note,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Status         Status    `json:"status"`
}

// StatusText is the receipt headline.
func (r Record) StatusText() string {
	switch r.Status {
	case StatusSuccess:
		return "Transaction Successful"
	case StatusPending:
		return "Transaction Pending"
	default:
		return "Transaction Failed"
	}
}

// BadgeStatus is the history list badge; success reads as "completed".
func (r Record) BadgeStatus() string {
	if r.Status == StatusSuccess {
		return "completed"
	}
	return string(r.Status)
}

func (r Record) Verb() string {
	switch r.Kind {
	case KindDeposit:
		return "Deposited"
	case KindWithdraw:
		return "Withdrew"
	default:
		return "Sent"
	}
}

// RelativeTime renders the age of t the way the history list does.
func RelativeTime(t, now time.Time) string {
	diff := now.Sub(t)
	hours := int(diff / time.Hour)
	days := int(diff / (24 * time.Hour))
	switch {
	case hours < 1:
		return "Just now"
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	default:
		return fmt.Sprintf("%dd ago", days)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
