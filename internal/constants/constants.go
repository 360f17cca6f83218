package constants

import "time"

const (
	AppName    = "sendii"
	ConfigFile = "config.yaml"
	EnvPrefix  = "SENDII"

	NativeAddr = "0x0000000000000000000000000000000000000000"

	// Dust aggregator deployment used by the consolidation flow.
	DustAggregatorAddr = "0x4FC57BaB376146209E67a529f99ECb51B70b423f"

	NativeSymbol   = "ETH"
	NativeName     = "Base Ether"
	NativeDecimals = 18

	// Displayed balances and aggregate amounts.
	BalanceDisplayDecimals = 4
	FiatDisplayDecimals    = 2

	// Ramp conversions round to this many places.
	RampDecimals = 2

	BaseMainnetChainID = 8453
	BaseSepoliaChainID = 84532

	DefaultSettlementDelay = 2 * time.Second
	ConfirmationTTL        = 10 * time.Minute

	HistoryMaxRecords = 50
)
