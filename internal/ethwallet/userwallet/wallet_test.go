package userwallet

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"

func TestFromHex(t *testing.T) {
	w, err := FromHex("0x" + testKeyHex)
	require.NoError(t, err)

	key, err := crypto.HexToECDSA(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), w.Address())

	_, err = FromHex("0x1234")
	assert.Error(t, err)
	_, err = FromHex("")
	assert.Error(t, err)
}

func TestSignHashRecoversAddress(t *testing.T) {
	w, err := NewRandomWallet()
	require.NoError(t, err)

	digest := crypto.Keccak256([]byte("dust"))
	sig, err := w.SignHash(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	pub, err := crypto.SigToPub(digest, sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), crypto.PubkeyToAddress(*pub))

	_, err = w.SignHash(context.Background(), []byte("short"))
	assert.Error(t, err)
}

func TestRejectingSigner(t *testing.T) {
	r := Rejecting{}
	_, err := r.SignHash(context.Background(), make([]byte, 32))
	assert.True(t, errors.Is(err, ErrRejected))
}
