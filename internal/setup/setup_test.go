package setup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientconfig "github.com/sendii-cash/sendii-client/cmd/sendii-client/config"
)

func testConfig(t *testing.T, secrets map[string]string) *clientconfig.Config {
	t.Helper()
	cfg, err := clientconfig.LoadFrom([]string{t.TempDir()}, func(k string) string { return secrets[k] })
	require.NoError(t, err)
	cfg.Chains.HeaderRefreshMillis = 0
	return cfg
}

func TestBuildWithoutSecrets(t *testing.T) {
	app, err := Build(context.Background(), testConfig(t, nil))
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Signer)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Flow.OnSettled)

	records, err := app.History.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	_, err = app.Ramp.Registry().Provider("mpesa")
	assert.NoError(t, err)
}

func TestBuildLoadsSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hexutil.Encode(crypto.FromECDSA(key))

	app, err := Build(context.Background(), testConfig(t, map[string]string{
		clientconfig.EnvWalletPrivateKey: hexKey,
	}))
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Signer)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), app.Signer.Address())
}

func TestBuildRejectsBadRedisURL(t *testing.T) {
	_, err := Build(context.Background(), testConfig(t, map[string]string{
		clientconfig.EnvRedisURL: "not-a-url://",
	}))
	assert.Error(t, err)
}

func TestOpenHistorySeedsFreshFileOnce(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, nil)
	cfg.Ramp.HistoryFile = filepath.Join(t.TempDir(), "history.json")

	store, err := openHistory(ctx, cfg, nil)
	require.NoError(t, err)
	first, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, first, 3)

	reopened, err := openHistory(ctx, cfg, nil)
	require.NoError(t, err)
	second, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, first[0].ID, second[0].ID)
}
