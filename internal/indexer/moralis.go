package indexer

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/sendii-cash/sendii-client/internal/metrics"
)

const (
	DefaultMoralisBaseURL = "https://deep-index.moralis.io/api/v2.2"
	apiKeyHeader          = "X-API-Key"
	sourceMoralis         = "moralis"
)

var ErrIndexerStatus = errors.New("indexer returned an error status")

// MoralisClient talks to the Moralis wallet API.
type MoralisClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	metrics    *metrics.Metrics

	// SkipSpam drops tokens the API flags as possible spam.
	SkipSpam bool
}

func NewMoralisClient(baseURL, apiKey string, m *metrics.Metrics) (*MoralisClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("moralis api key is empty")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultMoralisBaseURL
	}
	return &MoralisClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		metrics:    m,
		SkipSpam:   true,
	}, nil
}

// GetWalletTokenBalances wraps GET /{address}/erc20?chain=.
func (c *MoralisClient) GetWalletTokenBalances(ctx context.Context, chain, address string) (out []TokenBalance, err error) {
	start := time.Now()
	defer func() { c.metrics.IndexerFetch(sourceMoralis, "erc20", err, time.Since(start).Seconds()) }()

	var raw []moralisTokenBalance
	if err := c.get(ctx, address, "erc20", chain, &raw); err != nil {
		return nil, err
	}

	out = make([]TokenBalance, 0, len(raw))
	for _, r := range raw {
		if c.SkipSpam && r.PossibleSpam {
			continue
		}
		bal, ok := new(big.Int).SetString(strings.TrimSpace(r.Balance), 10)
		if !ok {
			continue
		}
		dec, err := strconv.ParseUint(r.Decimals.String(), 10, 8)
		if err != nil {
			continue
		}
		out = append(out, TokenBalance{
			TokenAddress: common.HexToAddress(r.TokenAddress).Hex(),
			Symbol:       r.Symbol,
			Name:         r.Name,
			Decimals:     uint8(dec),
			Balance:      bal,
		})
	}
	return out, nil
}

// GetNativeBalance wraps GET /{address}/balance?chain=.
func (c *MoralisClient) GetNativeBalance(ctx context.Context, chain, address string) (bal *big.Int, err error) {
	start := time.Now()
	defer func() { c.metrics.IndexerFetch(sourceMoralis, "native", err, time.Since(start).Seconds()) }()

	var raw moralisNativeBalance
	if err := c.get(ctx, address, "balance", chain, &raw); err != nil {
		return nil, err
	}
	bal, ok := new(big.Int).SetString(strings.TrimSpace(raw.Balance), 10)
	if !ok {
		return nil, errors.Newf("moralis: bad native balance %q", raw.Balance)
	}
	return bal, nil
}

func (c *MoralisClient) get(ctx context.Context, address, resource, chain string, out any) error {
	if !common.IsHexAddress(address) {
		return errors.Newf("invalid address %q", address)
	}
	u := c.baseURL + "/" + url.PathEscape(address) + "/" + resource + "?chain=" + url.QueryEscape(chain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "moralis %s", resource)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "moralis %s: read body", resource)
	}
	if resp.StatusCode != http.StatusOK {
		var me moralisError
		_ = json.Unmarshal(body, &me)
		msg := me.Message
		if msg == "" {
			msg = truncate(string(body))
		}
		return errors.Wrapf(ErrIndexerStatus, "moralis %s: status %d: %s", resource, resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode moralis %s", resource)
	}
	return nil
}

func truncate(s string) string {
	if len(s) <= 128 {
		return s
	}
	return s[:128] + "..."
}
