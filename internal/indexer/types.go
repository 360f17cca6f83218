package indexer

import "encoding/json"

// -------- Moralis DTOs --------

type moralisTokenBalance struct {
	TokenAddress string      `json:"token_address"`
	Symbol       string      `json:"symbol"`
	Name         string      `json:"name"`
	Decimals     json.Number `json:"decimals"`
	Balance      string      `json:"balance"`
	PossibleSpam bool        `json:"possible_spam"`
}

type moralisNativeBalance struct {
	Balance string `json:"balance"`
}

type moralisError struct {
	Message string `json:"message"`
}
