package assets

import (
	"context"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/contracts/erc20"
)

// BalanceOf returns the balance for `owner`.
// - If token == NativeAddr (0x000..0): returns ETH balance (wei)
// - Else: returns ERC20 balance (raw units)
func BalanceOf(ctx context.Context, client chains.EVMClient, token, owner common.Address) (*big.Int, error) {
	if client == nil {
		return nil, errors.New("assets: eth client not initialized")
	}

	// zero address owner: always zero, no RPC call
	if owner == (common.Address{}) {
		return big.NewInt(0), nil
	}

	if isNative(token.Hex()) {
		wei, err := client.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, errors.Wrap(err, "assets: native balance")
		}
		return wei, nil
	}

	erc, err := erc20.NewCaller(token, client)
	if err != nil {
		return nil, errors.Wrap(err, "assets: bind erc20")
	}
	bal, err := erc.BalanceOf(ctx, owner)
	if err != nil {
		return nil, errors.Wrapf(err, "assets: erc20 balanceOf %s", token.Hex())
	}
	return bal, nil
}
