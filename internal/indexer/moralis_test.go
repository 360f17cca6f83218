package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOwner = "0x1111111111111111111111111111111111111111"

func newMoralisServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid key"}`))
			return
		}
		assert.Equal(t, "0x14a34", r.URL.Query().Get("chain"))
		switch r.URL.Path {
		case "/" + testOwner + "/erc20":
			_, _ = w.Write([]byte(`[
				{"token_address":"0x833589fcd6edb6e08f4c7c32d4f71b54bda02913","symbol":"USDC","name":"USD Coin","decimals":6,"balance":"5000000","possible_spam":false},
				{"token_address":"0x50c5725949a6f0c72e6c4a641f24049a917ef0cb","symbol":"DAI","name":"Dai","decimals":"18","balance":"2000000000000000000"},
				{"token_address":"0x9999999999999999999999999999999999999999","symbol":"SCAM","name":"Scam","decimals":18,"balance":"1","possible_spam":true}
			]`))
		case "/" + testOwner + "/balance":
			_, _ = w.Write([]byte(`{"balance":"1000000000000000"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestMoralisTokenBalances(t *testing.T) {
	srv := newMoralisServer(t)
	defer srv.Close()

	c, err := NewMoralisClient(srv.URL, "k", nil)
	require.NoError(t, err)

	got, err := c.GetWalletTokenBalances(context.Background(), "0x14a34", testOwner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "USDC", got[0].Symbol)
	assert.Equal(t, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", got[0].TokenAddress)
	assert.Equal(t, uint8(6), got[0].Decimals)
	assert.Equal(t, "5000000", got[0].Balance.String())
	assert.Equal(t, uint8(18), got[1].Decimals)
}

func TestMoralisNativeBalance(t *testing.T) {
	srv := newMoralisServer(t)
	defer srv.Close()

	c, err := NewMoralisClient(srv.URL, "k", nil)
	require.NoError(t, err)

	bal, err := c.GetNativeBalance(context.Background(), "0x14a34", testOwner)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", bal.String())
}

func TestMoralisErrorStatus(t *testing.T) {
	srv := newMoralisServer(t)
	defer srv.Close()

	c, err := NewMoralisClient(srv.URL, "wrong", nil)
	require.NoError(t, err)

	_, err = c.GetNativeBalance(context.Background(), "0x14a34", testOwner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexerStatus)
	assert.Contains(t, err.Error(), "Invalid key")
}

func TestMoralisRejectsBadInput(t *testing.T) {
	_, err := NewMoralisClient("", " ", nil)
	assert.Error(t, err)

	c, err := NewMoralisClient("", "k", nil)
	require.NoError(t, err)
	_, err = c.GetNativeBalance(context.Background(), "0x2105", "not-an-address")
	assert.Error(t, err)
}
