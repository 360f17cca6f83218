package http

import (
	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/consolidate"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/history"
	"github.com/sendii-cash/sendii-client/internal/ramp"
)

type errorResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Code     string `json:"code"`
	Required string `json:"required,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

type walletStatusResp struct {
	Connected         bool   `json:"connected"`
	Address           string `json:"address,omitempty"`
	ChainID           uint64 `json:"chainId,omitempty"`
	ChainIDHex        string `json:"chainIdHex,omitempty"`
	Network           string `json:"network,omitempty"`
	Explorer          string `json:"explorer,omitempty"`
	SwitchedToDefault bool   `json:"switchedToDefault,omitempty"`
	// HeaderAgeMillis is the age of the cached chain head, when one is kept.
	HeaderAgeMillis *int64 `json:"headerAgeMs,omitempty"`
}

type switchChainReq struct {
	ChainID uint64 `json:"chainId"`
}

type thresholdReq struct {
	Threshold string `json:"threshold"`
}

type symbolReq struct {
	Symbol string `json:"symbol"`
}

type depositReq struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}

type catalogResp struct {
	ChainID    uint64           `json:"chainId"`
	Assets     []assets.Asset   `json:"assets"`
	Thresholds []dust.Threshold `json:"thresholds"`
}

type consolidateResp struct {
	OK     bool               `json:"ok"`
	Result consolidate.Result `json:"result"`
}

type sendResp struct {
	OK bool `json:"ok"`
	consolidate.SendResult
}

type providersResp struct {
	Providers []ramp.Provider `json:"providers"`
	Tokens    []string        `json:"tokens"`
}

type convertReq struct {
	Provider string `json:"provider"`
	Fiat     string `json:"fiat,omitempty"`
	Crypto   string `json:"crypto,omitempty"`
}

type convertResp struct {
	Provider string `json:"provider"`
	Currency string `json:"currency"`
	Fiat     string `json:"fiat"`
	Crypto   string `json:"crypto"`
}

type idReq struct {
	ID string `json:"id"`
}

type confirmResp struct {
	OK      bool            `json:"ok"`
	Message string          `json:"message"`
	Receipt history.Receipt `json:"receipt"`
}

type historyResp struct {
	Items []history.Item `json:"items"`
}
