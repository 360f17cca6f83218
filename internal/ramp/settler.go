package ramp

import (
	"context"
	"time"

	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/history"
)

// Settler moves a confirmed submission over a payment rail.
type Settler interface {
	Settle(ctx context.Context, c Confirmation) (history.Status, error)
}

// MockSettler waits Delay and reports success.
type MockSettler struct {
	Delay time.Duration
}

func NewMockSettler(delay time.Duration) *MockSettler {
	if delay < 0 {
		delay = constants.DefaultSettlementDelay
	}
	return &MockSettler{Delay: delay}
}

func (m *MockSettler) Settle(ctx context.Context, _ Confirmation) (history.Status, error) {
	if m.Delay <= 0 {
		return history.StatusSuccess, nil
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return history.StatusFailed, ctx.Err()
	case <-t.C:
		return history.StatusSuccess, nil
	}
}
