package ramp

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/metrics"
)

func mustRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(nil, nil)
	require.NoError(t, err)
	return reg
}

func TestConversions(t *testing.T) {
	kes := decimal.NewFromInt(150)

	assert.Equal(t, "10.00", FiatToCrypto("1500", kes))
	assert.Equal(t, "1500.00", CryptoToFiat("10", kes))
	assert.Equal(t, "0.33", FiatToCrypto("50", kes))
	assert.Equal(t, "", FiatToCrypto("abc", kes))
	assert.Equal(t, "", CryptoToFiat("", kes))
	assert.Equal(t, "", FiatToCrypto("10", decimal.Zero))
	assert.Equal(t, "0.50", FiatToCrypto(".75", decimal.RequireFromString("1.5")))

	for _, in := range []string{"1e3", "1E3", "1e2000000", "12abc", "0x10", "1,000", "1234567890123456", "1.1234567890123456789"} {
		assert.Equal(t, "", FiatToCrypto(in, kes), in)
		assert.Equal(t, "", CryptoToFiat(in, kes), in)
		assert.False(t, positiveAmount(in), in)
	}

	// round trip stays within one cent of the original fiat amount
	crypto := FiatToCrypto("1234.56", kes)
	back, err := decimal.NewFromString(CryptoToFiat(crypto, kes))
	require.NoError(t, err)
	assert.True(t, back.Sub(decimal.RequireFromString("1234.56")).Abs().LessThanOrEqual(kes.Mul(decimal.RequireFromString("0.005"))))
}

func TestRegistry(t *testing.T) {
	reg := mustRegistry(t)

	p, err := reg.Provider("MPESA")
	require.NoError(t, err)
	assert.Equal(t, "M-Pesa", p.Name)
	assert.Equal(t, "KES", p.Currency)

	_, err = reg.Provider("paypal")
	assert.True(t, errors.Is(err, ErrUnknownProvider))

	tok, err := reg.Token("usdt")
	require.NoError(t, err)
	assert.Equal(t, "USDT", tok)
	_, err = reg.Token("WETH")
	assert.True(t, errors.Is(err, ErrUnknownToken))

	_, err = NewRegistry([]Provider{{ID: "x", Region: "KE", PhonePrefix: "+254", RateText: "-1"}}, nil)
	assert.Error(t, err)
	_, err = NewRegistry([]Provider{
		{ID: "x", Region: "KE", PhonePrefix: "+254", RateText: "1"},
		{ID: "X", Region: "KE", PhonePrefix: "+254", RateText: "1"},
	}, nil)
	assert.Error(t, err)
}

func TestValidatePhone(t *testing.T) {
	reg := mustRegistry(t)
	mpesa, _ := reg.Provider("mpesa")
	mtn, _ := reg.Provider("mtn")
	airtel, _ := reg.Provider("airtel")

	e164, err := ValidatePhone("712345678", mpesa)
	require.NoError(t, err)
	assert.Equal(t, "+254712345678", e164)

	e164, err = ValidatePhone("+254712345678", mpesa)
	require.NoError(t, err)
	assert.Equal(t, "+254712345678", e164)

	_, err = ValidatePhone("712345678", mtn)
	assert.NoError(t, err)
	_, err = ValidatePhone("8012345678", airtel)
	assert.NoError(t, err)

	for _, bad := range []string{"", "123", "abcdefg"} {
		_, err := ValidatePhone(bad, mpesa)
		assert.True(t, errors.Is(err, ErrInvalidPhone), bad)
	}

	// a valid Kenyan number does not pass for a Nigerian provider
	_, err = ValidatePhone("+254712345678", airtel)
	assert.True(t, errors.Is(err, ErrInvalidPhone))
}

func TestFormValidation(t *testing.T) {
	reg := mustRegistry(t)

	cases := []struct {
		name string
		form Form
		msg  string
	}{
		{"deposit zero", Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "0", Phone: "712345678"}, "Please enter a valid amount"},
		{"deposit junk", Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "ten", Phone: "712345678"}, "Please enter a valid amount"},
		{"deposit exponent", Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "1e3", Phone: "712345678"}, "Please enter a valid amount"},
		{"withdraw huge exponent", Form{Kind: history.KindWithdraw, Provider: "mtn", Token: "USDT", CryptoAmount: "1e2000000", Phone: "712345678"}, "Please enter a valid crypto amount"},
		{"deposit phone", Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "1500", Phone: "12"}, "Please enter a valid Kenya phone number"},
		{"withdraw amount", Form{Kind: history.KindWithdraw, Provider: "mtn", Token: "USDT", CryptoAmount: "-2", Phone: "712345678"}, "Please enter a valid crypto amount"},
		{"withdraw phone", Form{Kind: history.KindWithdraw, Provider: "mtn", Token: "USDT", CryptoAmount: "2", Phone: "1"}, "Please enter a valid Uganda phone number"},
		{"pay amount", Form{Kind: history.KindPay, Provider: "airtel", Token: "DAI", RecipientPhone: "8012345678"}, "Please enter a valid amount"},
		{"pay phone", Form{Kind: history.KindPay, Provider: "airtel", Token: "DAI", CryptoAmount: "5", RecipientPhone: "99"}, "Please enter a valid Nigeria phone number"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reg.validate(tc.form)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			assert.Equal(t, tc.msg, err.Error())
		})
	}
}

type stubSettler struct {
	status history.Status
	err    error
	calls  int
}

func (s *stubSettler) Settle(context.Context, Confirmation) (history.Status, error) {
	s.calls++
	return s.status, s.err
}

func newService(t *testing.T, settler Settler) (*Service, *history.MemoryStore, *prometheus.Registry) {
	t.Helper()
	store := history.NewMemoryStore(10)
	promReg := prometheus.NewRegistry()
	svc, err := NewService(mustRegistry(t), settler, store, metrics.NewMetrics(promReg))
	require.NoError(t, err)
	return svc, store, promReg
}

func TestPrepareDescriptions(t *testing.T) {
	svc, _, _ := newService(t, &stubSettler{status: history.StatusSuccess})

	c, err := svc.Prepare(Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "1500", Phone: "712345678"})
	require.NoError(t, err)
	assert.Equal(t, "Confirm Deposit", c.Title)
	assert.Equal(t, "You will receive 10.00 USDC after payment confirmation", c.Description)
	assert.NotEmpty(t, c.ID)

	c, err = svc.Prepare(Form{Kind: history.KindWithdraw, Provider: "mpesa", Token: "USDC", CryptoAmount: "10", Phone: "712345678"})
	require.NoError(t, err)
	assert.Equal(t, "Confirm Withdrawal", c.Title)
	assert.Equal(t, "1500.00 KES will be sent to your M-Pesa account", c.Description)

	c, err = svc.Prepare(Form{Kind: history.KindPay, Provider: "mpesa", Token: "DAI", CryptoAmount: "3", RecipientPhone: "712345678"})
	require.NoError(t, err)
	assert.Equal(t, "Confirm Payment", c.Title)
	assert.Equal(t, "3 DAI will be sent to +254712345678", c.Description)
}

func TestConfirmRecordsHistory(t *testing.T) {
	settler := &stubSettler{status: history.StatusSuccess}
	svc, store, promReg := newService(t, settler)
	ctx := context.Background()

	c, err := svc.Prepare(Form{Kind: history.KindWithdraw, Provider: "mpesa", Token: "USDC", CryptoAmount: "10", Phone: "712345678"})
	require.NoError(t, err)

	out, err := svc.Confirm(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "KES 1500.00 will be sent to +254712345678 via M-Pesa", out.Message)
	assert.Equal(t, history.StatusSuccess, out.Record.Status)
	assert.Equal(t, "M-Pesa", out.Record.Provider)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", got.Amount)
	assert.Equal(t, "1500.00", got.FiatAmount)
	n, err := testutil.GatherAndCount(promReg, "sendii_ramp_submissions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// a confirmation settles once
	_, err = svc.Confirm(ctx, c.ID)
	assert.True(t, errors.Is(err, ErrConfirmationNotFound))
	assert.Equal(t, 1, settler.calls)
}

func TestConfirmPaySuccessMessage(t *testing.T) {
	svc, _, _ := newService(t, &stubSettler{status: history.StatusSuccess})
	c, err := svc.Prepare(Form{Kind: history.KindPay, Provider: "airtel", Token: "USDT", CryptoAmount: "2.5", RecipientPhone: "8012345678", Note: "lunch"})
	require.NoError(t, err)

	out, err := svc.Confirm(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2.5 USDT sent to +2348012345678", out.Message)
	assert.Equal(t, "+2348012345678", out.Record.RecipientPhone)
	assert.Equal(t, "lunch", out.Record.Note)
}

func TestConfirmFailedSettlement(t *testing.T) {
	svc, store, _ := newService(t, &stubSettler{err: errors.New("rail down")})
	ctx := context.Background()
	c, err := svc.Prepare(Form{Kind: history.KindDeposit, Provider: "mtn", Token: "USDC", FiatAmount: "3700", Phone: "712345678"})
	require.NoError(t, err)

	out, err := svc.Confirm(ctx, c.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSettlementFailed))
	assert.Equal(t, history.StatusFailed, out.Record.Status)

	got, err := store.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, history.StatusFailed, got.Status)
}

func TestCancelAndExpiry(t *testing.T) {
	svc, _, _ := newService(t, &stubSettler{status: history.StatusSuccess})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	form := Form{Kind: history.KindDeposit, Provider: "mpesa", Token: "USDC", FiatAmount: "150", Phone: "712345678"}
	c, err := svc.Prepare(form)
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(c.ID))
	assert.True(t, errors.Is(svc.Cancel(c.ID), ErrConfirmationNotFound))

	c, err = svc.Prepare(form)
	require.NoError(t, err)
	now = now.Add(11 * time.Minute)
	_, err = svc.Confirm(context.Background(), c.ID)
	assert.True(t, errors.Is(err, ErrConfirmationNotFound))
}

func TestMockSettlerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := NewMockSettler(time.Hour).Settle(ctx, Confirmation{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, history.StatusFailed, status)

	status, err = (&MockSettler{}).Settle(context.Background(), Confirmation{})
	require.NoError(t, err)
	assert.Equal(t, history.StatusSuccess, status)
}
