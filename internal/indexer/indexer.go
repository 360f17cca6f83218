// Package indexer fetches wallet balances from an indexing API or straight from chain.
package indexer

import (
	"context"
	"math/big"
)

// TokenBalance is one ERC-20 holding as reported by a Fetcher.
type TokenBalance struct {
	TokenAddress string   `json:"tokenAddress"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Decimals     uint8    `json:"decimals"`
	Balance      *big.Int `json:"balance"`
}

// Fetcher returns balances for address on chain. chain is the indexer's own
// chain key ("0x2105", "0x14a34"), not the numeric id.
type Fetcher interface {
	GetWalletTokenBalances(ctx context.Context, chain, address string) ([]TokenBalance, error)
	GetNativeBalance(ctx context.Context, chain, address string) (*big.Int, error)
}
