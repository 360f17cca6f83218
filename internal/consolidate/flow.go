package consolidate

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/contracts/dustaggregator"
	"github.com/sendii-cash/sendii-client/internal/contracts/erc20"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/metrics"
	"github.com/sendii-cash/sendii-client/internal/wallet"
)

type State string

const (
	StateIdle             State = "idle"
	StateEstimatingGas    State = "estimating-gas"
	StateAwaitingApproval State = "awaiting-approval"
	StateDepositing       State = "depositing"
	StateSwapping         State = "swapping"
	StateConfirmableSend  State = "confirmable-send"
	StateSending          State = "sending"
)

// Session is the wallet capability the flow drives. *wallet.Session implements it.
type Session interface {
	Key() (wallet.Key, error)
	NativeBalance(ctx context.Context) (*big.Int, error)
	Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error)
	EstimateGas(ctx context.Context, call wallet.ContractCall) (uint64, error)
	Fees(ctx context.Context) (wallet.Fees, error)
	Transact(ctx context.Context, call wallet.ContractCall) (*types.Receipt, error)
}

// FallbackGas is used per step when estimation fails, typically because the
// step depends on an approval that has not been mined yet.
type FallbackGas struct {
	Approve         uint64 `mapstructure:"approve"`
	DepositPerToken uint64 `mapstructure:"depositPerToken"`
	SwapPerToken    uint64 `mapstructure:"swapPerToken"`
}

type Config struct {
	Aggregator   common.Address
	GasBufferBps uint64
	Fallback     FallbackGas
}

func DefaultConfig() Config {
	return Config{
		GasBufferBps: 12_000,
		Fallback: FallbackGas{
			Approve:         60_000,
			DepositPerToken: 90_000,
			SwapPerToken:    120_000,
		},
	}
}

// Request is one consolidation: the selected inputs and the output token.
type Request struct {
	Inputs []assets.Token
	Output assets.Asset
}

// Estimate is the pre-flight cost of a request.
type Estimate struct {
	Gas          uint64   `json:"gas"`
	MaxFeePerGas *big.Int `json:"maxFeePerGas"`
	GasCost      *big.Int `json:"gasCost"`
	NativeValue  *big.Int `json:"nativeValue"`
	Required     *big.Int `json:"required"`
	Approvals    int      `json:"approvals"`
}

// Result describes a swap awaiting ConfirmSend.
type Result struct {
	Inputs   []string     `json:"inputs"`
	Output   assets.Asset `json:"output"`
	Quote    dust.Quote   `json:"quote"`
	TxHashes []string     `json:"txHashes"`
	Estimate Estimate     `json:"estimate"`
}

// Status is what GET /dust/flow renders.
type Status struct {
	State     State   `json:"state"`
	Step      string  `json:"step,omitempty"`
	Pending   *Result `json:"pending,omitempty"`
	LastError string  `json:"lastError,omitempty"`
}

// Flow runs one consolidation at a time.
type Flow struct {
	session Session
	cfg     Config
	metrics *metrics.Metrics

	tokenABI abi.ABI
	aggABI   abi.ABI

	// OnSettled runs after a successful send or deposit, e.g. to refresh balances.
	OnSettled func(ctx context.Context, key wallet.Key)

	mu      sync.Mutex
	state   State
	step    string
	pending *Result
	lastErr string
}

func NewFlow(session Session, cfg Config, m *metrics.Metrics) (*Flow, error) {
	if session == nil {
		return nil, errors.New("consolidate: nil session")
	}
	if cfg.Aggregator == (common.Address{}) {
		return nil, errors.New("consolidate: aggregator address is empty")
	}
	if cfg.GasBufferBps == 0 {
		cfg.GasBufferBps = 10_000
	}
	tokenABI, err := erc20.ABI()
	if err != nil {
		return nil, err
	}
	aggABI, err := dustaggregator.ABI()
	if err != nil {
		return nil, err
	}
	return &Flow{
		session:  session,
		cfg:      cfg,
		metrics:  m,
		tokenABI: tokenABI,
		aggABI:   aggABI,
		state:    StateIdle,
	}, nil
}

func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := Status{State: f.state, Step: f.step, LastError: f.lastErr}
	if f.pending != nil {
		p := *f.pending
		st.Pending = &p
	}
	return st
}

// begin claims the flow; it fails unless the flow is idle.
func (f *Flow) begin(next State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StateIdle {
		return ErrFlowBusy
	}
	f.state = next
	f.step = ""
	f.lastErr = ""
	f.pending = nil
	return nil
}

func (f *Flow) transition(next State, step string) {
	f.mu.Lock()
	f.state = next
	f.step = step
	f.mu.Unlock()
	log.Info("consolidation state", "state", next, "step", step)
}

// fail returns the flow to idle and classifies err.
func (f *Flow) fail(err error, step string) error {
	out := classify(err, step)
	f.mu.Lock()
	f.state = StateIdle
	f.step = ""
	f.pending = nil
	f.lastErr = out.Error()
	f.mu.Unlock()
	log.Warn("consolidation aborted", "step", step, "error", err)
	return out
}

func classify(err error, step string) error {
	var insufficient *InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return insufficient
	case wallet.IsUserRejected(err):
		return ErrUserRejected
	default:
		return errors.Mark(errors.Wrapf(err, "%s at %s", ErrConsolidationFailed.Error(), step), ErrConsolidationFailed)
	}
}

type plannedCall struct {
	step     string
	call     wallet.ContractCall
	fallback uint64
}

// Start runs approvals, the batch deposit and the swap, leaving the flow in
// confirmable-send on success.
func (f *Flow) Start(ctx context.Context, req Request) (Result, error) {
	if len(req.Inputs) == 0 {
		return Result{}, ErrNoInputs
	}
	key, err := f.session.Key()
	if err != nil {
		return Result{}, errors.Mark(errors.Wrap(err, ErrNoSession.Error()), ErrNoSession)
	}
	if err := f.begin(StateEstimatingGas); err != nil {
		return Result{}, err
	}
	started := time.Now()

	res, err := f.run(ctx, req)
	if err != nil {
		f.metrics.Flow(outcomeOf(err), 0)
		return Result{}, err
	}

	f.mu.Lock()
	f.state = StateConfirmableSend
	f.step = ""
	p := res
	f.pending = &p
	f.mu.Unlock()

	f.metrics.Flow("swapped", time.Since(started).Seconds())
	log.Info("dust swapped", "address", key.Address.Hex(), "inputs", res.Inputs, "output", res.Output.Symbol, "amount", res.Quote.ToAmount)
	return res, nil
}

func (f *Flow) run(ctx context.Context, req Request) (Result, error) {
	tokens := make([]common.Address, 0, len(req.Inputs))
	amounts := make([]*big.Int, 0, len(req.Inputs))
	symbols := make([]string, 0, len(req.Inputs))
	native := new(big.Int)
	for _, t := range req.Inputs {
		amt := t.Balance
		if amt == nil {
			amt = new(big.Int)
		}
		tokens = append(tokens, common.HexToAddress(t.Address))
		amounts = append(amounts, new(big.Int).Set(amt))
		symbols = append(symbols, t.Symbol)
		if t.IsNative() {
			native.Add(native, amt)
		}
	}

	approvals, err := f.pendingApprovals(ctx, req.Inputs)
	if err != nil {
		return Result{}, f.fail(err, "allowance")
	}

	n := uint64(len(tokens))
	plan := append(approvals,
		plannedCall{
			step: dustaggregator.MethodDepositDustBatch,
			call: wallet.ContractCall{
				To: f.cfg.Aggregator, ABI: f.aggABI, Method: dustaggregator.MethodDepositDustBatch,
				Args: []interface{}{tokens, amounts}, Value: native,
			},
			fallback: f.cfg.Fallback.DepositPerToken * n,
		},
		plannedCall{
			step: dustaggregator.MethodSwapDust,
			call: wallet.ContractCall{
				To: f.cfg.Aggregator, ABI: f.aggABI, Method: dustaggregator.MethodSwapDust,
				Args: []interface{}{tokens, common.HexToAddress(req.Output.Address)},
			},
			fallback: f.cfg.Fallback.SwapPerToken * n,
		},
	)

	est, err := f.preflight(ctx, plan, native)
	if err != nil {
		return Result{}, f.fail(err, "estimate")
	}
	est.Approvals = len(approvals)

	res := Result{
		Inputs:   symbols,
		Output:   req.Output,
		Quote:    dust.NewQuote(req.Inputs, req.Output),
		Estimate: est,
	}

	// approvals go one at a time so wallet prompts keep their order
	for _, p := range plan {
		switch p.step {
		case dustaggregator.MethodDepositDustBatch:
			f.transition(StateDepositing, p.step)
		case dustaggregator.MethodSwapDust:
			f.transition(StateSwapping, p.step)
		default:
			f.transition(StateAwaitingApproval, p.step)
		}
		receipt, err := f.session.Transact(ctx, p.call)
		if err != nil {
			return Result{}, f.fail(err, p.step)
		}
		res.TxHashes = append(res.TxHashes, receipt.TxHash.Hex())
	}
	return res, nil
}

// pendingApprovals lists approve calls for non-native inputs whose allowance
// does not already cover the deposit.
func (f *Flow) pendingApprovals(ctx context.Context, inputs []assets.Token) ([]plannedCall, error) {
	var out []plannedCall
	for _, t := range inputs {
		if t.IsNative() || t.Balance == nil || t.Balance.Sign() == 0 {
			continue
		}
		token := common.HexToAddress(t.Address)
		allowance, err := f.session.Allowance(ctx, token, f.cfg.Aggregator)
		if err != nil {
			return nil, errors.Wrapf(err, "allowance %s", t.Symbol)
		}
		if allowance != nil && allowance.Cmp(t.Balance) >= 0 {
			log.Info("approval skipped", "token", t.Symbol, "allowance", allowance.String())
			continue
		}
		out = append(out, plannedCall{
			step: "approve " + t.Symbol,
			call: wallet.ContractCall{
				To: token, ABI: f.tokenABI, Method: "approve",
				Args: []interface{}{f.cfg.Aggregator, new(big.Int).Set(t.Balance)},
			},
			fallback: f.cfg.Fallback.Approve,
		})
	}
	return out, nil
}

// preflight sums buffered gas over the plan and checks the native balance
// covers the native value plus gas at maxFeePerGas.
func (f *Flow) preflight(ctx context.Context, plan []plannedCall, nativeValue *big.Int) (Estimate, error) {
	var total uint64
	for _, p := range plan {
		gas, err := f.session.EstimateGas(ctx, p.call)
		if err != nil || gas == 0 {
			log.Info("gas estimate unavailable, using fallback", "step", p.step, "fallback", p.fallback, "error", err)
			gas = p.fallback
		}
		total += applyBpsBuffer(gas, f.cfg.GasBufferBps)
	}

	fees, err := f.session.Fees(ctx)
	if err != nil {
		return Estimate{}, err
	}
	cost := new(big.Int).Mul(new(big.Int).SetUint64(total), fees.MaxFee)
	required := new(big.Int).Add(cost, nativeValue)

	balance, err := f.session.NativeBalance(ctx)
	if err != nil {
		return Estimate{}, err
	}
	if balance.Cmp(required) < 0 {
		return Estimate{}, &InsufficientFundsError{Required: required, Available: balance}
	}

	return Estimate{
		Gas:          total,
		MaxFeePerGas: fees.MaxFee,
		GasCost:      cost,
		NativeValue:  new(big.Int).Set(nativeValue),
		Required:     required,
	}, nil
}

// SendResult is reported once the consolidated output has been sent to the wallet.
type SendResult struct {
	Amount  string `json:"amount"`
	Symbol  string `json:"symbol"`
	Message string `json:"message"`
}

// ConfirmSend completes a swap that is waiting in confirmable-send.
func (f *Flow) ConfirmSend(ctx context.Context) (SendResult, error) {
	f.mu.Lock()
	if f.state != StateConfirmableSend || f.pending == nil {
		busy := f.state != StateIdle && f.state != StateConfirmableSend
		f.mu.Unlock()
		if busy {
			return SendResult{}, ErrFlowBusy
		}
		return SendResult{}, ErrNothingToSend
	}
	pending := *f.pending
	f.state = StateSending
	f.mu.Unlock()

	out := SendResult{
		Amount:  pending.Quote.ToAmount,
		Symbol:  pending.Output.Symbol,
		Message: "Sent " + pending.Quote.ToAmount + " " + pending.Output.Symbol + " to wallet successfully!",
	}

	f.settled(ctx)

	f.mu.Lock()
	f.state = StateIdle
	f.pending = nil
	f.mu.Unlock()

	f.metrics.Flow("sent", 0)
	log.Info("consolidated output sent", "amount", out.Amount, "symbol", out.Symbol)
	return out, nil
}

// DepositDust deposits a single token: approve then deposit, or a payable
// deposit for the native asset.
func (f *Flow) DepositDust(ctx context.Context, token assets.Asset, amount *big.Int) (Result, error) {
	if amount == nil || amount.Sign() <= 0 {
		return Result{}, errors.New("deposit amount must be positive")
	}
	if _, err := f.session.Key(); err != nil {
		return Result{}, errors.Mark(errors.Wrap(err, ErrNoSession.Error()), ErrNoSession)
	}
	if err := f.begin(StateEstimatingGas); err != nil {
		return Result{}, err
	}

	in := assets.Token{Asset: token, Balance: amount}
	var plan []plannedCall
	native := new(big.Int)
	if in.IsNative() {
		native.Set(amount)
	} else {
		approvals, err := f.pendingApprovals(ctx, []assets.Token{in})
		if err != nil {
			return Result{}, f.fail(err, "allowance")
		}
		plan = approvals
	}
	addr := common.HexToAddress(token.Address)
	plan = append(plan, plannedCall{
		step: dustaggregator.MethodDepositDust,
		call: wallet.ContractCall{
			To: f.cfg.Aggregator, ABI: f.aggABI, Method: dustaggregator.MethodDepositDust,
			Args: []interface{}{addr, new(big.Int).Set(amount)}, Value: native,
		},
		fallback: f.cfg.Fallback.DepositPerToken,
	})

	est, err := f.preflight(ctx, plan, native)
	if err != nil {
		return Result{}, f.fail(err, "estimate")
	}
	res := Result{Inputs: []string{token.Symbol}, Estimate: est}

	for _, p := range plan {
		if p.step == dustaggregator.MethodDepositDust {
			f.transition(StateDepositing, p.step)
		} else {
			f.transition(StateAwaitingApproval, p.step)
		}
		receipt, err := f.session.Transact(ctx, p.call)
		if err != nil {
			return Result{}, f.fail(err, p.step)
		}
		res.TxHashes = append(res.TxHashes, receipt.TxHash.Hex())
	}

	f.settled(ctx)

	f.mu.Lock()
	f.state = StateIdle
	f.step = ""
	f.mu.Unlock()
	f.metrics.Flow("deposited", 0)
	return res, nil
}

func (f *Flow) settled(ctx context.Context) {
	if f.OnSettled == nil {
		return
	}
	key, err := f.session.Key()
	if err != nil {
		return
	}
	f.OnSettled(ctx, key)
}

func applyBpsBuffer(gas uint64, bps uint64) uint64 {
	return (gas * bps) / 10000
}

func outcomeOf(err error) string {
	var insufficient *InsufficientFundsError
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_funds"
	case errors.Is(err, ErrUserRejected):
		return "rejected"
	default:
		return "failed"
	}
}
