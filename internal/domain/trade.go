package domain

// TradeRecord is the canonical form of a swap involving the tracked token,
// produced by the extractor and consumed by notification and storage.
type TradeRecord struct {
	Signature     string  // Solana transaction signature (unique id)
	Side          string  // "buy" | "sell"
	BaseAmount    float64 // base-asset amount in whole units (SOL, USDC, ...)
	TokenAmount   float64 // tracked-token amount normalized by token decimals
	PricePerToken float64 // BaseAmount / TokenAmount, 0 when TokenAmount is 0
	Venue         string  // resolved exchange name, "Unknown DEX" if unresolved
	BaseAsset     string  // symbol of the base-asset leg ("SOL", "USDC", "USDT")
	LargeTrade    bool    // BaseAmount >= configured threshold
	OccurredAt    int64   // Unix timestamp in seconds
	Counterparty  string  // fee payer wallet, "Unknown" if implausible
}

// Trade side constants
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// VenueUnknown is the fallback venue when no program id matches.
const VenueUnknown = "Unknown DEX"
