// Package erc20 packs and reads the ERC-20 calls the agent needs.
package erc20

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABIJSON covers the standard subset used for balances and approvals.
const ABIJSON = `[
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
{"type":"event","name":"Approval","anonymous":false,"inputs":[{"name":"owner","type":"address","indexed":true},{"name":"spender","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}]}
]`

var (
	parsedOnce sync.Once
	parsed     abi.ABI
	parseErr   error
)

func ABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsed, parseErr = abi.JSON(strings.NewReader(ABIJSON))
	})
	return parsed, parseErr
}

func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	return a.Pack("approve", spender, amount)
}

// ContractCaller is the read-only backend a Caller needs.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Caller reads a single token contract.
type Caller struct {
	address common.Address
	backend ContractCaller
}

func NewCaller(address common.Address, backend ContractCaller) (*Caller, error) {
	if backend == nil {
		return nil, errors.New("erc20: nil backend")
	}
	if _, err := ABI(); err != nil {
		return nil, errors.Wrap(err, "erc20: parse abi")
	}
	return &Caller{address: address, backend: backend}, nil
}

func (c *Caller) Address() common.Address { return c.address }

func (c *Caller) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	var out *big.Int
	if err := c.call(ctx, &out, "balanceOf", owner); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Caller) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	var out *big.Int
	if err := c.call(ctx, &out, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Caller) Decimals(ctx context.Context) (uint8, error) {
	var out uint8
	err := c.call(ctx, &out, "decimals")
	return out, err
}

func (c *Caller) Symbol(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, &out, "symbol")
	return out, err
}

func (c *Caller) Name(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, &out, "name")
	return out, err
}

func (c *Caller) call(ctx context.Context, out interface{}, method string, args ...interface{}) error {
	a, _ := ABI()
	data, err := a.Pack(method, args...)
	if err != nil {
		return errors.Wrapf(err, "erc20: pack %s", method)
	}
	to := c.address
	res, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return errors.Wrapf(err, "erc20: call %s", method)
	}
	if err := a.UnpackIntoInterface(out, method, res); err != nil {
		return errors.Wrapf(err, "erc20: unpack %s", method)
	}
	return nil
}
