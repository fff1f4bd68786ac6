package solana

// Well-known mint addresses used as quote assets.
const (
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// LamportsPerSOL converts lamports to whole SOL.
const LamportsPerSOL = 1_000_000_000.0

// BaseAssetSymbols maps recognized base-asset mints to display symbols.
var BaseAssetSymbols = map[string]string{
	WSOLMint: "SOL",
	USDCMint: "USDC",
	USDTMint: "USDT",
}

// BaseAssetSymbol returns the display symbol for a base-asset mint, or a
// shortened mint when unrecognized.
func BaseAssetSymbol(mint string) string {
	if sym, ok := BaseAssetSymbols[mint]; ok {
		return sym
	}
	return ShortAddress(mint)
}

// ShortAddress renders an address as "abcd..wxyz" for display.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:4] + ".." + addr[len(addr)-4:]
}
