package extract

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// RaydiumCLMM is the Raydium concentrated-liquidity program ID.
	RaydiumCLMM = "CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"
	// PumpFun is the pump.fun bonding-curve program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	// PumpSwap is the PumpSwap AMM program ID.
	PumpSwap = "pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA"
	// JupiterV6 is the Jupiter aggregator v6 program ID.
	JupiterV6 = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	// OrcaWhirlpool is the Orca Whirlpool program ID.
	OrcaWhirlpool = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	// MeteoraDLMM is the Meteora dynamic-liquidity program ID.
	MeteoraDLMM = "LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo"
)

// venueNames maps known program IDs to display names. Scanned in instruction
// order, first match wins.
var venueNames = map[string]string{
	RaydiumAMMV4:  "Raydium",
	RaydiumCLMM:   "Raydium CLMM",
	PumpFun:       "Pump.fun",
	PumpSwap:      "PumpSwap",
	JupiterV6:     "Jupiter",
	OrcaWhirlpool: "Orca",
	MeteoraDLMM:   "Meteora",
}

// VenueName returns the display name for a known DEX program ID.
func VenueName(programID string) (string, bool) {
	name, ok := venueNames[programID]
	return name, ok
}
