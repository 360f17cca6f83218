// Package dustaggregator holds the ABI of the external dust aggregator contract.
package dustaggregator

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	MethodDepositDust      = "depositDust"
	MethodDepositDustBatch = "depositDustBatch"
	MethodSwapDust         = "swapDust"
)

const ABIJSON = `[
{"type":"function","name":"depositDust","stateMutability":"payable","inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"depositDustBatch","stateMutability":"payable","inputs":[{"name":"tokens","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]},
{"type":"function","name":"swapDust","stateMutability":"nonpayable","inputs":[{"name":"tokens","type":"address[]"},{"name":"tokenOut","type":"address"}],"outputs":[]},
{"type":"event","name":"DustDeposited","anonymous":false,"inputs":[{"name":"user","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
{"type":"event","name":"DustSwapped","anonymous":false,"inputs":[{"name":"user","type":"address","indexed":true},{"name":"tokenOut","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]}
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

func PackDepositDust(token common.Address, amount *big.Int) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	return a.Pack(MethodDepositDust, token, amount)
}

func PackDepositDustBatch(tokens []common.Address, amounts []*big.Int) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	return a.Pack(MethodDepositDustBatch, tokens, amounts)
}

func PackSwapDust(tokens []common.Address, tokenOut common.Address) ([]byte, error) {
	a, err := ABI()
	if err != nil {
		return nil, err
	}
	return a.Pack(MethodSwapDust, tokens, tokenOut)
}
