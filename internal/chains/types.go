package chains

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EVMClient is the slice of *ethclient.Client the agent relies on.
type EVMClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type AllChainsConfig struct {
	Networks       map[string]NetworkConfig `json:"networks" yaml:"networks" mapstructure:"networks"`
	DefaultNetwork string                   `json:"defaultNetwork" yaml:"defaultNetwork" mapstructure:"defaultNetwork"`
	PreferredRPC   string                   `json:"preferredRPC" yaml:"preferredRPC" mapstructure:"preferredRPC"`
	// HeaderRefreshMillis controls the background latest-header refresher; 0 disables it.
	HeaderRefreshMillis int `json:"headerRefreshMillis" yaml:"headerRefreshMillis" mapstructure:"headerRefreshMillis"`
}

// NetworkConfig describes a network and its RPC endpoints.
type NetworkConfig struct {
	Name         string `json:"name" yaml:"name" mapstructure:"name"`
	ChainID      uint64 `json:"chainId" yaml:"chainId" mapstructure:"chainId"`
	ChainIDHex   string `json:"chainIdHex" yaml:"chainIdHex" mapstructure:"chainIdHex"`
	IndexerChain string `json:"indexerChain" yaml:"indexerChain" mapstructure:"indexerChain"`
	Explorer     string `json:"explorer" yaml:"explorer" mapstructure:"explorer"`
	RPCs         []RPC  `json:"rpcs" yaml:"rpcs" mapstructure:"rpcs"`
}

type RPC struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
	WSS  string `json:"wss,omitempty" yaml:"wss" mapstructure:"wss"`
}

type ResolvedChain struct {
	NetworkName  string
	ChainID      uint64
	ChainIDHex   string
	IndexerChain string
	Explorer     string

	RPCName string
	URL     string
}

func (mc *AllChainsConfig) Normalize() {
	if mc == nil {
		return
	}
	out := make(map[string]NetworkConfig, len(mc.Networks))
	for name, n := range mc.Networks {
		key := strings.ToLower(strings.TrimSpace(name))
		n.Name = key
		n.ChainIDHex = strings.ToLower(strings.TrimSpace(n.ChainIDHex))
		if n.ChainIDHex == "" && n.ChainID != 0 {
			n.ChainIDHex = "0x" + new(big.Int).SetUint64(n.ChainID).Text(16)
		}
		if n.IndexerChain == "" {
			n.IndexerChain = n.ChainIDHex
		}
		out[key] = n
	}
	mc.Networks = out
	mc.DefaultNetwork = strings.ToLower(strings.TrimSpace(mc.DefaultNetwork))
}
