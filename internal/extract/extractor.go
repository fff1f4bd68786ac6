// Package extract turns raw Helius enhanced transactions into canonical
// trade records for the single tracked token. Extraction is total: malformed
// or non-qualifying transactions yield no trade, never an error.
package extract

import (
	"log"
	"strconv"
	"strings"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/solana"
)

// Options configures an Extractor.
type Options struct {
	// TrackedMint is the mint address of the tracked token.
	TrackedMint string
	// TrackedDecimals normalizes raw tracked-token amounts to whole units.
	TrackedDecimals int
	// BaseAssets is the set of recognized quote mints (WSOL, USDC, USDT).
	BaseAssets []string
	// LargeTradeThreshold flags trades at or above this base amount.
	LargeTradeThreshold float64
	Logger              *log.Logger
}

// Extractor extracts trades of one tracked token from enhanced transactions.
type Extractor struct {
	trackedMint     string
	trackedDecimals int
	baseAssets      map[string]struct{}
	threshold       float64
	logger          *log.Logger
}

// New creates an Extractor. BaseAssets defaults to WSOL, USDC and USDT when
// empty.
func New(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	baseAssets := opts.BaseAssets
	if len(baseAssets) == 0 {
		baseAssets = []string{solana.WSOLMint, solana.USDCMint, solana.USDTMint}
	}
	set := make(map[string]struct{}, len(baseAssets))
	for _, mint := range baseAssets {
		set[mint] = struct{}{}
	}

	return &Extractor{
		trackedMint:     opts.TrackedMint,
		trackedDecimals: opts.TrackedDecimals,
		baseAssets:      set,
		threshold:       opts.LargeTradeThreshold,
		logger:          logger,
	}
}

// leg is one side of a matched swap, normalized to whole units.
type leg struct {
	mint   string
	amount float64
}

// Extract returns the trade a transaction represents, or nil when it does
// not qualify: failed transactions, transactions without swap events,
// swaps not touching the tracked token, and token-to-token swaps without a
// recognized base-asset leg all yield nil.
func (e *Extractor) Extract(tx *helius.EnhancedTransaction) *domain.TradeRecord {
	if tx == nil || tx.Signature == "" || tx.TransactionError != nil {
		return nil
	}

	events, err := helius.ParseSwapEvents(tx.Events.Swap)
	if err != nil {
		e.logger.Printf("tx %s: unparseable swap section: %v", tx.Signature, err)
		return nil
	}
	if len(events) == 0 {
		return nil
	}

	// First entry referencing the tracked mint wins.
	for i := range events {
		event := &events[i]
		if !e.references(event) {
			continue
		}

		side, base, token, innerVenue := e.matchLegs(event)
		if side == "" {
			// Tracked token present but not against a recognized base
			// asset (e.g. token-to-token route hop).
			return nil
		}

		price := 0.0
		if token.amount > 0 {
			price = base.amount / token.amount
		}

		counterparty := "Unknown"
		if solana.IsOnCurve(tx.FeePayer) {
			counterparty = tx.FeePayer
		}

		return &domain.TradeRecord{
			Signature:     tx.Signature,
			Side:          side,
			BaseAmount:    base.amount,
			TokenAmount:   token.amount,
			PricePerToken: price,
			Venue:         e.resolveVenue(tx, innerVenue),
			BaseAsset:     solana.BaseAssetSymbol(base.mint),
			LargeTrade:    base.amount >= e.threshold && e.threshold > 0,
			OccurredAt:    tx.Timestamp,
			Counterparty:  counterparty,
		}
	}

	return nil
}

// references reports whether any leg of the entry, top-level or inner,
// touches the tracked mint.
func (e *Extractor) references(event *helius.SwapEvent) bool {
	for _, t := range event.TokenInputs {
		if t.Mint == e.trackedMint {
			return true
		}
	}
	for _, t := range event.TokenOutputs {
		if t.Mint == e.trackedMint {
			return true
		}
	}
	for _, inner := range event.InnerSwaps {
		for _, t := range inner.TokenInputs {
			if t.Mint == e.trackedMint {
				return true
			}
		}
		for _, t := range inner.TokenOutputs {
			if t.Mint == e.trackedMint {
				return true
			}
		}
	}
	return false
}

// matchLegs pairs the tracked-token leg with an opposite-side base-asset leg.
// Top-level legs are checked first, then inner swaps; the returned venue is
// only set when the match came from an inner swap carrying program info.
func (e *Extractor) matchLegs(event *helius.SwapEvent) (side string, base, token leg, innerVenue string) {
	// Buy: tracked token out, base asset in.
	if token, ok := e.trackedLeg(event.TokenOutputs); ok {
		if base, ok := e.baseLeg(event.TokenInputs, event.NativeInput); ok {
			return domain.SideBuy, base, token, ""
		}
	}
	// Sell: tracked token in, base asset out.
	if token, ok := e.trackedLeg(event.TokenInputs); ok {
		if base, ok := e.baseLeg(event.TokenOutputs, event.NativeOutput); ok {
			return domain.SideSell, base, token, ""
		}
	}

	// Inner swaps carry already-normalized amounts.
	for _, inner := range event.InnerSwaps {
		venue := ""
		if inner.ProgramInfo != nil {
			venue = inner.ProgramInfo.Source
		}
		if token, ok := e.trackedTransfer(inner.TokenOutputs); ok {
			if base, ok := e.baseTransfer(inner.TokenInputs); ok {
				return domain.SideBuy, base, token, venue
			}
		}
		if token, ok := e.trackedTransfer(inner.TokenInputs); ok {
			if base, ok := e.baseTransfer(inner.TokenOutputs); ok {
				return domain.SideSell, base, token, venue
			}
		}
	}

	return "", leg{}, leg{}, ""
}

// trackedLeg finds the tracked-token leg among raw top-level token legs and
// normalizes it by the configured decimals.
func (e *Extractor) trackedLeg(tokens []helius.SwapToken) (leg, bool) {
	for _, t := range tokens {
		if t.Mint != e.trackedMint {
			continue
		}
		raw, ok := parseAmount(t.RawTokenAmount.TokenAmount)
		if !ok {
			e.logger.Printf("tracked leg has non-numeric amount %q", t.RawTokenAmount.TokenAmount)
			return leg{}, false
		}
		return leg{mint: t.Mint, amount: raw / pow10(e.trackedDecimals)}, true
	}
	return leg{}, false
}

// baseLeg finds a recognized base-asset leg: the native SOL leg when present,
// otherwise a token leg whose mint is in the base-asset set.
func (e *Extractor) baseLeg(tokens []helius.SwapToken, native *helius.NativeAmount) (leg, bool) {
	if native != nil && native.Amount != "" {
		lamports, ok := parseAmount(native.Amount)
		if !ok {
			e.logger.Printf("native leg has non-numeric amount %q", native.Amount)
			return leg{}, false
		}
		if lamports > 0 {
			return leg{mint: solana.WSOLMint, amount: lamports / solana.LamportsPerSOL}, true
		}
	}
	for _, t := range tokens {
		if _, ok := e.baseAssets[t.Mint]; !ok {
			continue
		}
		raw, ok := parseAmount(t.RawTokenAmount.TokenAmount)
		if !ok {
			return leg{}, false
		}
		return leg{mint: t.Mint, amount: raw / pow10(t.RawTokenAmount.Decimals)}, true
	}
	return leg{}, false
}

func (e *Extractor) trackedTransfer(transfers []helius.TokenTransfer) (leg, bool) {
	for _, t := range transfers {
		if t.Mint == e.trackedMint {
			return leg{mint: t.Mint, amount: t.TokenAmount}, true
		}
	}
	return leg{}, false
}

func (e *Extractor) baseTransfer(transfers []helius.TokenTransfer) (leg, bool) {
	for _, t := range transfers {
		if _, ok := e.baseAssets[t.Mint]; ok {
			return leg{mint: t.Mint, amount: t.TokenAmount}, true
		}
	}
	return leg{}, false
}

// resolveVenue prefers the source label Helius already resolved, then inner
// program info, then the static program-id table, defaulting to Unknown DEX.
func (e *Extractor) resolveVenue(tx *helius.EnhancedTransaction, innerVenue string) string {
	if label := cleanSourceLabel(tx.Source); label != "" {
		return label
	}
	if label := cleanSourceLabel(innerVenue); label != "" {
		return label
	}
	for _, inst := range tx.Instructions {
		if name, ok := VenueName(inst.ProgramID); ok {
			return name
		}
	}
	return domain.VenueUnknown
}

// cleanSourceLabel turns a Helius source label ("RAYDIUM", "PUMP_FUN") into
// display form, dropping empty and UNKNOWN labels.
func cleanSourceLabel(source string) string {
	source = strings.TrimSpace(source)
	if source == "" || strings.EqualFold(source, "UNKNOWN") {
		return ""
	}
	words := strings.Split(strings.ToLower(strings.ReplaceAll(source, "_", " ")), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// parseAmount parses a decimal amount string. Raw amounts are integers but
// Helius occasionally delivers them with a fractional part.
func parseAmount(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func pow10(decimals int) float64 {
	result := 1.0
	for i := 0; i < decimals; i++ {
		result *= 10
	}
	return result
}
