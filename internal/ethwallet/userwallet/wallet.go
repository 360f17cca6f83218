package userwallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrRejected is what a declining signer reports; the message matches the
// phrasing browser wallets use so classification works the same way.
var ErrRejected = errors.New("user rejected the request")

// Wallet is an EOA signer backed by an in-memory secp256k1 key.
type Wallet struct {
	address common.Address
	key     *ecdsa.PrivateKey
}

// FromHex loads a signer from a hex private key, with or without 0x.
func FromHex(privHex string) (*Wallet, error) {
	privHex = strings.TrimSpace(privHex)
	if len(privHex) >= 2 && strings.EqualFold(privHex[:2], "0x") {
		privHex = privHex[2:]
	}
	if privHex == "" {
		return nil, errors.New("empty private key")
	}
	key, err := crypto.HexToECDSA(privHex)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}
	return newWallet(key), nil
}

func NewRandomWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "generate key")
	}
	return newWallet(key), nil
}

func newWallet(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{address: crypto.PubkeyToAddress(key.PublicKey), key: key}
}

func (w *Wallet) Address() common.Address { return w.address }

// SignHash returns a 65-byte [R || S || V] signature with V in {0, 1}.
func (w *Wallet) SignHash(ctx context.Context, digest32 []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(digest32) != common.HashLength {
		return nil, errors.Newf("digest must be %d bytes, got %d", common.HashLength, len(digest32))
	}
	return crypto.Sign(digest32, w.key)
}

// Rejecting is a signer that declines every request. It stands in for a
// wallet whose user dismisses the prompt.
type Rejecting struct {
	Addr common.Address
}

func (r Rejecting) Address() common.Address { return r.Addr }

func (r Rejecting) SignHash(context.Context, []byte) ([]byte, error) {
	return nil, ErrRejected
}
