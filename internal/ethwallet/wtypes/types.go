package wtypes

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Wallet is the signer behind a wallet session.
//   - SignHash signs a 32-byte digest and returns a 65-byte signature (R || S || V),
//     where V is 0/1 as produced by go-ethereum's crypto.Sign.
//   - A signer that declines a request returns an error whose message says so
//     ("user rejected ..."); callers classify it by message.
type Wallet interface {
	Address() common.Address
	SignHash(ctx context.Context, digest32 []byte) ([]byte, error)
}
