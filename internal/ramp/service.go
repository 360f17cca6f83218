package ramp

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/metrics"
)

var (
	ErrConfirmationNotFound = errors.New("confirmation not found or expired")
	ErrSettlementFailed     = errors.New("settlement failed")
)

// Confirmation is a validated submission waiting for the user to confirm it.
type Confirmation struct {
	ID          string       `json:"id"`
	Kind        history.Kind `json:"kind"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Provider    string       `json:"provider"`
	Token       string       `json:"token"`
	FiatAmount  string       `json:"fiatAmount"`
	Currency    string       `json:"currency"`
	Amount      string       `json:"amount"`
	Phone       string       `json:"phone"`
	ExpiresAt   time.Time    `json:"expiresAt"`

	form validated
}

// Outcome is a settled submission.
type Outcome struct {
	Record  history.Record `json:"record"`
	Message string         `json:"message"`
}

type Service struct {
	registry *Registry
	settler  Settler
	store    history.Store
	metrics  *metrics.Metrics

	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]Confirmation
}

func NewService(reg *Registry, settler Settler, store history.Store, m *metrics.Metrics) (*Service, error) {
	if reg == nil {
		return nil, errors.New("ramp: registry is nil")
	}
	if settler == nil {
		return nil, errors.New("ramp: settler is nil")
	}
	if store == nil {
		return nil, errors.New("ramp: history store is nil")
	}
	return &Service{
		registry: reg,
		settler:  settler,
		store:    store,
		metrics:  m,
		ttl:      constants.ConfirmationTTL,
		now:      time.Now,
		pending:  make(map[string]Confirmation),
	}, nil
}

func (s *Service) Registry() *Registry { return s.registry }

// Convert applies the provider rate to whichever side is set. Fiat wins when both are.
func (s *Service) Convert(providerID, fiat, crypto string) (string, string, error) {
	p, err := s.registry.Provider(providerID)
	if err != nil {
		return "", "", err
	}
	if fiat != "" {
		return fiat, FiatToCrypto(fiat, p.ExchangeRate), nil
	}
	return CryptoToFiat(crypto, p.ExchangeRate), crypto, nil
}

// Prepare validates f and parks it as a pending confirmation.
func (s *Service) Prepare(f Form) (Confirmation, error) {
	v, err := s.registry.validate(f)
	if err != nil {
		return Confirmation{}, err
	}

	now := s.now()
	c := Confirmation{
		ID:          uuid.NewString(),
		Kind:        v.kind,
		Title:       v.title(),
		Description: v.description(),
		Provider:    v.provider.ID,
		Token:       v.token,
		FiatAmount:  v.fiat,
		Currency:    v.provider.Currency,
		Amount:      v.crypto,
		Phone:       v.phone,
		ExpiresAt:   now.Add(s.ttl),
		form:        v,
	}

	s.mu.Lock()
	s.prune(now)
	s.pending[c.ID] = c
	s.mu.Unlock()

	return c, nil
}

// Confirm settles a pending confirmation and records it. A confirmation can be
// confirmed once; a failed settlement is recorded with failed status.
func (s *Service) Confirm(ctx context.Context, id string) (Outcome, error) {
	c, err := s.take(id)
	if err != nil {
		return Outcome{}, err
	}

	start := time.Now()
	status, err := s.settler.Settle(ctx, c)
	if err == nil && status == history.StatusFailed {
		err = ErrSettlementFailed
	}
	s.metrics.RampSubmission(string(c.Kind), c.Provider, err, time.Since(start).Seconds())
	if err != nil {
		status = history.StatusFailed
	}

	rec := s.record(c, status)
	if addErr := s.store.Add(ctx, rec); addErr != nil {
		log.Error("failed to store ramp record", "id", rec.ID, "error", addErr)
		if err == nil {
			return Outcome{}, errors.Wrap(addErr, "store history record")
		}
	}

	if err != nil {
		log.Warn("ramp settlement failed", "id", c.ID, "kind", c.Kind, "error", err)
		if errors.Is(err, ErrSettlementFailed) {
			return Outcome{Record: rec}, err
		}
		return Outcome{Record: rec}, errors.Mark(errors.Wrap(err, "settle"), ErrSettlementFailed)
	}

	log.Info("ramp submission settled", "id", c.ID, "kind", c.Kind, "provider", c.Provider, "status", status)
	return Outcome{Record: rec, Message: c.form.successMessage()}, nil
}

// Cancel drops a pending confirmation.
func (s *Service) Cancel(id string) error {
	_, err := s.take(id)
	return err
}

func (s *Service) take(id string) (Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.pending[id]
	if !ok {
		return Confirmation{}, errors.Wrapf(ErrConfirmationNotFound, "%q", id)
	}
	delete(s.pending, id)
	if !s.now().Before(c.ExpiresAt) {
		return Confirmation{}, errors.Wrapf(ErrConfirmationNotFound, "%q", id)
	}
	return c, nil
}

func (s *Service) prune(now time.Time) {
	for id, c := range s.pending {
		if !now.Before(c.ExpiresAt) {
			delete(s.pending, id)
		}
	}
}

func (s *Service) record(c Confirmation, status history.Status) history.Record {
	r := history.Record{
		ID:         c.ID,
		Kind:       c.Kind,
		Amount:     c.Amount,
		Token:      c.Token,
		FiatAmount: c.FiatAmount,
		Currency:   c.Currency,
		Phone:      c.Phone,
		Provider:   c.form.provider.Name,
		Note:       c.form.note,
		Timestamp:  s.now(),
		Status:     status,
	}
	if c.Kind == history.KindPay {
		r.RecipientPhone = c.Phone
	}
	return r
}
