package config

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/constants"
	"github.com/sendii-cash/sendii-client/internal/ramp"
)

// Secrets are read from the environment only.
const (
	EnvMoralisAPIKey    = constants.EnvPrefix + "_MORALIS_API_KEY"
	EnvWalletPrivateKey = constants.EnvPrefix + "_WALLET_PRIVATE_KEY"
	EnvRedisURL         = constants.EnvPrefix + "_REDIS_URL"
)

const (
	IndexerAuto    = "auto"
	IndexerMoralis = "moralis"
	IndexerChain   = "chain"
)

type ClientSettings struct {
	LocalHost      string   `mapstructure:"localHost"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
	RatePerMinute  int      `mapstructure:"ratePerMinute"`
	MaxConcurrent  int      `mapstructure:"maxConcurrent"`
}

type IndexerSettings struct {
	Source          string `mapstructure:"source"`
	BaseURL         string `mapstructure:"baseURL"`
	CacheTTLSeconds int    `mapstructure:"cacheTTLSeconds"`
	APIKey          string `mapstructure:"-"`
}

type FallbackGas struct {
	Approve         uint64 `mapstructure:"approve"`
	DepositPerToken uint64 `mapstructure:"depositPerToken"`
	SwapPerToken    uint64 `mapstructure:"swapPerToken"`
}

type DustSettings struct {
	Aggregator               string      `mapstructure:"aggregator"`
	GasBufferBps             uint64      `mapstructure:"gasBufferBps"`
	PollIntervalMillis       int         `mapstructure:"pollIntervalMillis"`
	MetadataFetchDelayMillis int         `mapstructure:"metadataFetchDelayMillis"`
	FallbackGas              FallbackGas `mapstructure:"fallbackGas"`
}

type RampSettings struct {
	SettlementDelayMillis int             `mapstructure:"settlementDelayMillis"`
	HistoryMaxRecords     int             `mapstructure:"historyMaxRecords"`
	SeedHistory           bool            `mapstructure:"seedHistory"`
	HistoryFile           string          `mapstructure:"historyFile"`
	Tokens                []string        `mapstructure:"tokens"`
	Providers             []ramp.Provider `mapstructure:"providers"`
}

type Secrets struct {
	WalletPrivateKey string
	RedisURL         string
}

type Config struct {
	ClientSettings ClientSettings         `mapstructure:"ClientSettings"`
	Chains         chains.AllChainsConfig `mapstructure:"Chains"`
	Catalog        assets.CatalogConfig   `mapstructure:"Catalog"`
	Indexer        IndexerSettings        `mapstructure:"Indexer"`
	Dust           DustSettings           `mapstructure:"Dust"`
	Ramp           RampSettings           `mapstructure:"Ramp"`

	Secrets Secrets `mapstructure:"-"`
}

// DefaultPaths lists where a user config.yaml is looked up, in order.
func DefaultPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", constants.AppName),
		filepath.Join(home, "config"),
		".",
	}
}

func Load() (*Config, error) {
	return LoadFrom(DefaultPaths(), os.Getenv)
}

// LoadFrom reads the embedded defaults, merges the first config.yaml found in
// paths, applies SENDII_* overrides and secrets, then normalizes and validates.
func LoadFrom(paths []string, getenv func(string) string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(EmbeddedConfigYAML)); err != nil {
		return nil, errors.Wrap(err, "read embedded config")
	}

	v.SetConfigName(strings.TrimSuffix(constants.ConfigFile, filepath.Ext(constants.ConfigFile)))
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	cfg.ApplySecrets(getenv)
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplySecrets(getenv func(string) string) {
	if getenv == nil {
		return
	}
	c.Indexer.APIKey = strings.TrimSpace(getenv(EnvMoralisAPIKey))
	c.Secrets.WalletPrivateKey = strings.TrimSpace(getenv(EnvWalletPrivateKey))
	c.Secrets.RedisURL = strings.TrimSpace(getenv(EnvRedisURL))
}

// Normalize canonicalizes keys and addresses and resolves the indexer source.
func (c *Config) Normalize() error {
	c.Chains.Normalize()

	c.ClientSettings.LocalHost = strings.TrimSpace(c.ClientSettings.LocalHost)
	if c.ClientSettings.LocalHost == "" {
		c.ClientSettings.LocalHost = "127.0.0.1"
	}

	if err := c.NormalizeCatalog(); err != nil {
		return err
	}

	src := strings.ToLower(strings.TrimSpace(c.Indexer.Source))
	if src == "" || src == IndexerAuto {
		src = IndexerChain
		if c.Indexer.APIKey != "" {
			src = IndexerMoralis
		}
	}
	c.Indexer.Source = src

	c.Dust.Aggregator = strings.TrimSpace(c.Dust.Aggregator)
	if c.Dust.Aggregator == "" {
		c.Dust.Aggregator = constants.DustAggregatorAddr
	}
	if common.IsHexAddress(c.Dust.Aggregator) {
		c.Dust.Aggregator = common.HexToAddress(c.Dust.Aggregator).Hex()
	}

	if c.Ramp.HistoryMaxRecords <= 0 {
		c.Ramp.HistoryMaxRecords = constants.HistoryMaxRecords
	}
	return nil
}

// NormalizeCatalog canonicalizes catalog chain keys and token addresses.
func (c *Config) NormalizeCatalog() error {
	if c.Catalog.Tokens == nil {
		c.Catalog.Tokens = map[string][]assets.Asset{}
		return nil
	}

	out := make(map[string][]assets.Asset, len(c.Catalog.Tokens))
	for chainKey, list := range c.Catalog.Tokens {
		ck := strings.ToLower(strings.TrimSpace(chainKey))
		if ck == "" {
			return errors.New("Catalog.tokens has empty chain key")
		}

		seen := map[string]struct{}{}
		norm := make([]assets.Asset, 0, len(list))
		for _, a := range list {
			raw := strings.TrimSpace(a.Address)
			if raw == "" {
				return errors.Newf("Catalog.tokens[%q] contains empty address", chainKey)
			}
			if !strings.HasPrefix(raw, "0x") && !strings.HasPrefix(raw, "0X") {
				raw = "0x" + raw
			}
			raw = strings.ToLower(raw)
			if !common.IsHexAddress(raw) {
				return errors.Newf("Catalog.tokens[%q] invalid address: %q", chainKey, a.Address)
			}
			a.Address = common.HexToAddress(raw).Hex()
			if _, ok := seen[a.Address]; ok {
				continue
			}
			seen[a.Address] = struct{}{}
			norm = append(norm, a)
		}
		out[ck] = norm
	}
	c.Catalog.Tokens = out
	return nil
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ClientSettings.Port)
	if err != nil || port <= 0 || port > 65535 {
		return errors.Newf("ClientSettings.port must be between 1 and 65535, got %q", c.ClientSettings.Port)
	}
	if ip := net.ParseIP(c.ClientSettings.LocalHost); c.ClientSettings.LocalHost != "localhost" && (ip == nil || !ip.IsLoopback()) {
		return errors.Newf("ClientSettings.localHost must be a loopback address, got %q", c.ClientSettings.LocalHost)
	}
	if _, ok := c.Chains.Networks[c.Chains.DefaultNetwork]; !ok {
		return errors.Newf("Chains.defaultNetwork %q is not configured", c.Chains.DefaultNetwork)
	}
	switch c.Indexer.Source {
	case IndexerMoralis:
		if c.Indexer.APIKey == "" {
			return errors.Newf("indexer source %q needs %s", IndexerMoralis, EnvMoralisAPIKey)
		}
	case IndexerChain:
	default:
		return errors.Newf("unknown indexer source %q (allowed: auto, moralis, chain)", c.Indexer.Source)
	}
	if !common.IsHexAddress(c.Dust.Aggregator) {
		return errors.Newf("Dust.aggregator is not an address: %q", c.Dust.Aggregator)
	}
	if c.Dust.GasBufferBps != 0 && c.Dust.GasBufferBps < 10_000 {
		return errors.New("Dust.gasBufferBps must be at least 10000")
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ClientSettings.LocalHost, c.ClientSettings.Port)
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Indexer.CacheTTLSeconds) * time.Second
}

func (c *Config) SettlementDelay() time.Duration {
	return time.Duration(c.Ramp.SettlementDelayMillis) * time.Millisecond
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Dust.PollIntervalMillis) * time.Millisecond
}

func (c *Config) MetadataFetchDelay() time.Duration {
	return time.Duration(c.Dust.MetadataFetchDelayMillis) * time.Millisecond
}
