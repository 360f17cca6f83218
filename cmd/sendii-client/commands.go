package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/sendii-cash/sendii-client/internal/assets"
	"github.com/sendii-cash/sendii-client/internal/dust"
	"github.com/sendii-cash/sendii-client/internal/ramp"
	"github.com/sendii-cash/sendii-client/internal/setup"
)

var envLookup = os.Getenv

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent's loopback HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, "failed to parse config")
			}
			return setup.Run(cmd.Context(), cfg, setup.BuildInfo{
				Version:   Version,
				Commit:    Commit,
				BuildDate: BuildDate,
			})
		},
	}
}

func newBalancesCmd() *cobra.Command {
	var (
		address   string
		chainID   uint64
		threshold string
	)
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Print the priced portfolio and the dust selection for an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(address) {
				return errors.Newf("invalid --address %q", address)
			}
			t, err := dust.ParseThreshold(threshold)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, "failed to parse config")
			}
			app, err := setup.Build(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if chainID == 0 {
				resolved, err := app.Chains.ResolveNetworkByName(cfg.Chains.DefaultNetwork)
				if err != nil {
					return err
				}
				chainID = resolved.ChainID
			}

			tokens, err := app.Assets.Refresh(cmd.Context(), common.HexToAddress(address), chainID)
			if err != nil {
				return err
			}
			output, _ := app.Catalog.DefaultOutput(chainID)
			printBalances(cmd.OutOrStdout(), tokens, dust.Select(tokens, t), t, output)
			return nil
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "wallet address")
	cmd.Flags().Uint64Var(&chainID, "chain", 0, "chain id (default: the configured default network)")
	cmd.Flags().StringVar(&threshold, "threshold", dust.DefaultThreshold().Label, "dust threshold: $10, $100, $1000 or MAX")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}

func printBalances(w io.Writer, tokens, inputs []assets.Token, t dust.Threshold, output assets.Asset) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SYMBOL\tBALANCE\tVALUE")
	for _, tok := range tokens {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", tok.Symbol, tok.BalanceHuman, tok.ValueDisplay)
	}
	_ = tw.Flush()

	q := dust.NewQuote(inputs, output)
	_, _ = fmt.Fprintf(w, "\ndust under %s: %d token(s), %s -> %s %s\n", t.Label, len(inputs), q.FromAmount, q.ToAmount, q.ToSymbol)
	for _, tok := range inputs {
		_, _ = fmt.Fprintf(w, "  %s %s (%s)\n", tok.BalanceHuman, tok.Symbol, tok.ValueDisplay)
	}
}

func newQuoteCmd() *cobra.Command {
	var provider, fiat, crypto string
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Convert between fiat and crypto at a provider's rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (fiat == "") == (crypto == "") {
				return errors.New("pass exactly one of --fiat or --crypto")
			}
			cfg, err := loadConfig()
			if err != nil {
				return errors.Wrap(err, "failed to parse config")
			}
			reg, err := ramp.NewRegistry(cfg.Ramp.Providers, cfg.Ramp.Tokens)
			if err != nil {
				return err
			}
			p, err := reg.Provider(provider)
			if err != nil {
				return err
			}
			return printQuote(cmd.OutOrStdout(), p, fiat, crypto)
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "mpesa", "provider id")
	cmd.Flags().StringVar(&fiat, "fiat", "", "fiat amount to convert to crypto")
	cmd.Flags().StringVar(&crypto, "crypto", "", "crypto amount to convert to fiat")
	return cmd
}

func printQuote(w io.Writer, p ramp.Provider, fiat, crypto string) error {
	if fiat != "" {
		out := ramp.FiatToCrypto(fiat, p.ExchangeRate)
		if out == "" {
			return errors.Newf("invalid --fiat %q", fiat)
		}
		_, err := fmt.Fprintf(w, "%s %s = %s (rate %s via %s)\n", fiat, p.Currency, out, p.ExchangeRate, p.Name)
		return err
	}
	out := ramp.CryptoToFiat(crypto, p.ExchangeRate)
	if out == "" {
		return errors.Newf("invalid --crypto %q", crypto)
	}
	_, err := fmt.Fprintf(w, "%s = %s %s (rate %s via %s)\n", crypto, out, p.Currency, p.ExchangeRate, p.Name)
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sendii-client %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
