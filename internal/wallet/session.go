package wallet

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/contracts/erc20"
	"github.com/sendii-cash/sendii-client/internal/ethwallet/wtypes"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrUserRejected = errors.New("user rejected the request")
	ErrReverted     = errors.New("transaction reverted")
)

const (
	maxFeeBaseFeeMultiplier = 2
	defaultPollInterval     = 2 * time.Second
)

// rejection phrases used by wallets when the user dismisses a prompt
var rejectionPhrases = []string{
	"user rejected",
	"user denied",
	"rejected the request",
}

// IsUserRejected reports whether err came from the user declining a wallet prompt.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, p := range rejectionPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// ContractCall is a single contract interaction: address, ABI, function name,
// arguments and an optional native value.
type ContractCall struct {
	To     common.Address
	ABI    abi.ABI
	Method string
	Args   []interface{}
	Value  *big.Int
}

func (c ContractCall) Pack() ([]byte, error) {
	data, err := c.ABI.Pack(c.Method, c.Args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", c.Method)
	}
	return data, nil
}

// Key identifies the account and chain a piece of state was computed for.
type Key struct {
	Address common.Address
	ChainID uint64
}

func (k Key) IsZero() bool { return k.Address == (common.Address{}) || k.ChainID == 0 }

// Fees is an EIP-1559 fee pair.
type Fees struct {
	TipCap *big.Int
	MaxFee *big.Int
}

type Session struct {
	chains *chains.Service

	mu     sync.RWMutex
	signer wtypes.Wallet

	PollInterval time.Duration
}

func NewSession(chainService *chains.Service) *Session {
	return &Session{chains: chainService, PollInterval: defaultPollInterval}
}

// Connect attaches a signer and activates the default chain if none is active.
func (s *Session) Connect(ctx context.Context, w wtypes.Wallet) (Key, error) {
	if w == nil {
		return Key{}, errors.New("wallet: nil signer")
	}
	if _, err := s.chains.ActiveClient(); err != nil {
		if _, err := s.chains.SwitchChain(ctx, s.chains.DefaultNetwork()); err != nil {
			return Key{}, err
		}
	}

	s.mu.Lock()
	s.signer = w
	s.mu.Unlock()

	key, err := s.Key()
	if err != nil {
		return Key{}, err
	}
	log.Info("wallet connected", "address", key.Address.Hex(), "chainId", key.ChainID)
	return key, nil
}

func (s *Session) Disconnect() {
	s.mu.Lock()
	s.signer = nil
	s.mu.Unlock()
	log.Info("wallet disconnected")
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signer != nil
}

func (s *Session) Address() (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.signer == nil {
		return common.Address{}, ErrNotConnected
	}
	return s.signer.Address(), nil
}

func (s *Session) Chain() (chains.ResolvedChain, error) {
	resolved, _, err := s.chains.Active()
	return resolved, err
}

// HeaderAge reports how stale the active chain's cached head is. ok is false
// when no chain is active or its client does not cache headers.
func (s *Session) HeaderAge() (age time.Duration, ok bool) {
	c, err := s.client()
	if err != nil {
		return 0, false
	}
	cached, isCached := c.(interface{ LatestHeaderAge() time.Duration })
	if !isCached {
		return 0, false
	}
	return cached.LatestHeaderAge(), true
}

func (s *Session) Key() (Key, error) {
	addr, err := s.Address()
	if err != nil {
		return Key{}, err
	}
	resolved, err := s.Chain()
	if err != nil {
		return Key{}, err
	}
	return Key{Address: addr, ChainID: resolved.ChainID}, nil
}

// SwitchChain moves the session to chainID; unsupported ids land on the default network.
func (s *Session) SwitchChain(ctx context.Context, chainID uint64) (chains.ResolvedChain, bool, error) {
	return s.chains.SwitchChainByID(ctx, chainID)
}

func (s *Session) client() (chains.EVMClient, error) {
	return s.chains.ActiveClient()
}

func (s *Session) NativeBalance(ctx context.Context) (*big.Int, error) {
	addr, err := s.Address()
	if err != nil {
		return nil, err
	}
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	bal, err := c.BalanceAt(ctx, addr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "native balance")
	}
	return bal, nil
}

// Call performs a read-only contract call from the connected account.
func (s *Session) Call(ctx context.Context, call ContractCall) ([]byte, error) {
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	data, err := call.Pack()
	if err != nil {
		return nil, err
	}
	from, _ := s.Address()
	to := call.To
	return c.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
}

func (s *Session) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	owner, err := s.Address()
	if err != nil {
		return nil, err
	}
	c, err := s.client()
	if err != nil {
		return nil, err
	}
	caller, err := erc20.NewCaller(token, c)
	if err != nil {
		return nil, err
	}
	return caller.Allowance(ctx, owner, spender)
}

func (s *Session) EstimateGas(ctx context.Context, call ContractCall) (uint64, error) {
	from, err := s.Address()
	if err != nil {
		return 0, err
	}
	c, err := s.client()
	if err != nil {
		return 0, err
	}
	data, err := call.Pack()
	if err != nil {
		return 0, err
	}
	to := call.To
	return c.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: call.Value, Data: data})
}

// Fees suggests EIP-1559 fees: tip from the node, maxFee = 2*baseFee + tip.
func (s *Session) Fees(ctx context.Context) (Fees, error) {
	c, err := s.client()
	if err != nil {
		return Fees{}, err
	}
	tip, err := c.SuggestGasTipCap(ctx)
	if err != nil {
		return Fees{}, errors.Wrap(err, "suggest gas tip cap")
	}
	head, err := c.HeaderByNumber(ctx, nil)
	if err != nil {
		return Fees{}, errors.Wrap(err, "latest header")
	}
	baseFee := big.NewInt(0)
	if head != nil && head.BaseFee != nil {
		baseFee = head.BaseFee
	}
	maxFee := new(big.Int).Mul(baseFee, big.NewInt(maxFeeBaseFeeMultiplier))
	maxFee.Add(maxFee, tip)
	return Fees{TipCap: tip, MaxFee: maxFee}, nil
}

// Transact signs and submits call, then waits for it to be mined.
func (s *Session) Transact(ctx context.Context, call ContractCall) (*types.Receipt, error) {
	s.mu.RLock()
	signer := s.signer
	s.mu.RUnlock()
	if signer == nil {
		return nil, ErrNotConnected
	}

	c, err := s.client()
	if err != nil {
		return nil, err
	}
	data, err := call.Pack()
	if err != nil {
		return nil, err
	}

	from := signer.Address()
	to := call.To
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "chain id")
	}
	nonce, err := c.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	gas, err := c.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return nil, errors.Wrapf(err, "estimate %s", call.Method)
	}
	fees, err := s.Fees(ctx)
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
		GasTipCap: fees.TipCap,
		GasFeeCap: fees.MaxFee,
	})

	signed, err := signTransaction(ctx, signer, tx, chainID)
	if err != nil {
		if IsUserRejected(err) {
			return nil, errors.Mark(err, ErrUserRejected)
		}
		return nil, errors.Wrap(err, "sign transaction")
	}

	if err := c.SendTransaction(ctx, signed); err != nil {
		return nil, errors.Wrapf(err, "send %s", call.Method)
	}
	log.Info("transaction submitted", "method", call.Method, "to", to.Hex(), "hash", signed.Hash().Hex())

	return s.waitMined(ctx, c, signed.Hash())
}

func (s *Session) waitMined(ctx context.Context, c chains.EVMClient, hash common.Hash) (*types.Receipt, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := c.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, errors.Wrapf(ErrReverted, "tx %s", hash.Hex())
			}
			return receipt, nil
		case err != nil && !errors.Is(err, ethereum.NotFound):
			return nil, errors.Wrapf(err, "receipt %s", hash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func signTransaction(ctx context.Context, w wtypes.Wallet, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	digest := signer.Hash(tx)

	sig, err := w.SignHash(ctx, digest.Bytes())
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(signer, sig)
}
