package chainstest

import (
	"context"

	"github.com/sendii-cash/sendii-client/internal/chains"
	"github.com/sendii-cash/sendii-client/internal/constants"
)

// Config describes Base mainnet and Base Sepolia, defaulting to Sepolia.
func Config() chains.AllChainsConfig {
	return chains.AllChainsConfig{
		DefaultNetwork: "base-sepolia",
		Networks: map[string]chains.NetworkConfig{
			"base": {
				ChainID:      constants.BaseMainnetChainID,
				IndexerChain: "0x2105",
				RPCs:         []chains.RPC{{Name: "fake", URL: "http://base.invalid"}},
			},
			"base-sepolia": {
				ChainID:      constants.BaseSepoliaChainID,
				IndexerChain: "0x14a34",
				RPCs:         []chains.RPC{{Name: "fake", URL: "http://sepolia.invalid"}},
			},
		},
	}
}

// NewService wires Config to fakes keyed by chain id; unknown ids get a fresh fake.
func NewService(clients map[uint64]*Client) (*chains.Service, error) {
	return chains.NewServiceWithDialer(Config(), func(_ context.Context, rc chains.ResolvedChain) (chains.EVMClient, error) {
		if c, ok := clients[rc.ChainID]; ok {
			return c, nil
		}
		return New(rc.ChainID), nil
	})
}
