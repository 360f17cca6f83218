package assets

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/contracts/erc20"
)

// FetchAsset reads token metadata from chain. The native sentinel is answered locally.
func FetchAsset(ctx context.Context, client chains.EVMClient, addr string) (Asset, error) {
	a, err := normalizeAddress(addr)
	if err != nil {
		return Asset{}, err
	}

	if isNative(a) {
		return Asset{
			Address:  common.HexToAddress(constants.NativeAddr).Hex(),
			Symbol:   constants.NativeSymbol,
			Decimals: constants.NativeDecimals,
			Name:     constants.NativeName,
		}, nil
	}

	if client == nil {
		return Asset{}, errors.New("eth client is nil")
	}

	token, err := erc20.NewCaller(common.HexToAddress(a), client)
	if err != nil {
		return Asset{}, err
	}

	sym, err := token.Symbol(ctx)
	if err != nil {
		return Asset{}, errors.Wrap(err, "symbol")
	}
	dec, err := token.Decimals(ctx)
	if err != nil {
		return Asset{}, errors.Wrap(err, "decimals")
	}

	name := ""
	if n, err := token.Name(ctx); err == nil {
		name = n
	}

	return Asset{
		Address:  a,
		Symbol:   sym,
		Decimals: dec,
		Name:     name,
	}, nil
}
