package main

import (
	"github.com/spf13/cobra"

	clientconfig "github.com/sendii-cash/sendii-client/cmd/sendii-client/config"
)

var cfgDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sendii-client",
		Short:         "Local wallet agent for the Sendii on/off-ramp",
		Long:          `sendii-client serves a loopback API for the Sendii UI: wallet session, dust consolidation and mobile-money ramp forms.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgDir, "config-dir", "", "directory holding config.yaml (default: ~/.config/sendii, ~/config, .)")

	root.AddCommand(
		newServeCmd(),
		newBalancesCmd(),
		newQuoteCmd(),
		newVersionCmd(),
	)
	return root
}

func loadConfig() (*clientconfig.Config, error) {
	if cfgDir == "" {
		return clientconfig.Load()
	}
	return clientconfig.LoadFrom([]string{cfgDir}, envLookup)
}
