// Package chainstest provides an in-memory chains.EVMClient for tests.
package chainstest

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sendii-cash/sendii-client/internal/contracts/erc20"
)

// Client fakes a node holding native balances and ERC-20 state.
// Sent approve transactions update allowances; everything else is recorded only.
type Client struct {
	mu sync.Mutex

	ID      *big.Int
	TipCap  *big.Int
	BaseFee *big.Int

	native     map[common.Address]*big.Int
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[[2]common.Address]*big.Int
	nonces     map[common.Address]uint64
	receipts   map[common.Hash]*types.Receipt

	Sent []*types.Transaction

	// EstimateGasFn overrides the fixed estimate when set.
	EstimateGasFn func(msg ethereum.CallMsg) (uint64, error)
	// FailSelectors makes mined receipts of these methods revert.
	FailSelectors map[[4]byte]bool
	SendErr     error
}

func New(chainID uint64) *Client {
	return &Client{
		ID:         new(big.Int).SetUint64(chainID),
		TipCap:     big.NewInt(1_000_000),
		BaseFee:    big.NewInt(10_000_000),
		native:     map[common.Address]*big.Int{},
		balances:   map[common.Address]map[common.Address]*big.Int{},
		allowances: map[common.Address]map[[2]common.Address]*big.Int{},
		nonces:     map[common.Address]uint64{},
		receipts:   map[common.Hash]*types.Receipt{},
	}
}

func (c *Client) SetNative(owner common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.native[owner] = amount
}

func (c *Client) SetTokenBalance(token, owner common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.balances[token] == nil {
		c.balances[token] = map[common.Address]*big.Int{}
	}
	c.balances[token][owner] = amount
}

func (c *Client) SetAllowance(token, owner, spender common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAllowanceLocked(token, owner, spender, amount)
}

func (c *Client) setAllowanceLocked(token, owner, spender common.Address, amount *big.Int) {
	if c.allowances[token] == nil {
		c.allowances[token] = map[[2]common.Address]*big.Int{}
	}
	c.allowances[token][[2]common.Address{owner, spender}] = amount
}

// FailMethod makes transactions calling method revert once mined.
func (c *Client) FailMethod(a abi.ABI, method string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSelectors == nil {
		c.FailSelectors = map[[4]byte]bool{}
	}
	var sel [4]byte
	copy(sel[:], a.Methods[method].ID)
	c.FailSelectors[sel] = true
}

// SentMethods lists the method names of sent transactions, resolved against abis.
func (c *Client) SentMethods(abis ...abi.ABI) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.Sent))
	for _, tx := range c.Sent {
		name := ""
		if len(tx.Data()) >= 4 {
			for _, a := range abis {
				if m, err := a.MethodById(tx.Data()[:4]); err == nil {
					name = m.Name
					break
				}
			}
		}
		out = append(out, name)
	}
	return out
}

func (c *Client) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

func (c *Client) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.ID), nil
}

func (c *Client) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.native[account]; v != nil {
		return new(big.Int).Set(v), nil
	}
	return big.NewInt(0), nil
}

func (c *Client) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("fake: bad call")
	}
	parsed, err := erc20.ABI()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(msg.Data[:4])
	if err != nil {
		return nil, errors.Wrap(err, "fake: unknown selector")
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	token := *msg.To
	switch method.Name {
	case "balanceOf":
		return method.Outputs.Pack(orZero(c.balances[token][args[0].(common.Address)]))
	case "allowance":
		key := [2]common.Address{args[0].(common.Address), args[1].(common.Address)}
		return method.Outputs.Pack(orZero(c.allowances[token][key]))
	case "decimals":
		return method.Outputs.Pack(uint8(18))
	case "symbol", "name":
		return method.Outputs.Pack(strings.ToUpper(token.Hex()[2:6]))
	}
	return nil, errors.Newf("fake: unsupported call %s", method.Name)
}

func (c *Client) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	if c.EstimateGasFn != nil {
		return c.EstimateGasFn(msg)
	}
	return 50_000, nil
}

func (c *Client) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.TipCap), nil
}

func (c *Client) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: new(big.Int).Set(c.BaseFee)}, nil
}

func (c *Client) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nonces[account], nil
}

func (c *Client) SendTransaction(_ context.Context, tx *types.Transaction) error {
	if c.SendErr != nil {
		return c.SendErr
	}
	from, err := types.Sender(types.LatestSignerForChainID(c.ID), tx)
	if err != nil {
		return errors.Wrap(err, "fake: recover sender")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonces[from]++
	c.Sent = append(c.Sent, tx)

	status := types.ReceiptStatusSuccessful
	if len(tx.Data()) >= 4 {
		var sel [4]byte
		copy(sel[:], tx.Data()[:4])
		if c.FailSelectors[sel] {
			status = types.ReceiptStatusFailed
		}
	}
	if status == types.ReceiptStatusSuccessful {
		c.applyApproveLocked(from, tx)
	}
	c.receipts[tx.Hash()] = &types.Receipt{
		Status:      status,
		TxHash:      tx.Hash(),
		GasUsed:     tx.Gas(),
		BlockNumber: big.NewInt(int64(len(c.Sent))),
	}
	return nil
}

func (c *Client) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r := c.receipts[hash]; r != nil {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (c *Client) applyApproveLocked(from common.Address, tx *types.Transaction) {
	if tx.To() == nil || len(tx.Data()) < 4 {
		return
	}
	parsed, err := erc20.ABI()
	if err != nil {
		return
	}
	method, err := parsed.MethodById(tx.Data()[:4])
	if err != nil || method.Name != "approve" {
		return
	}
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return
	}
	c.setAllowanceLocked(*tx.To(), from, args[0].(common.Address), args[1].(*big.Int))
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
