package notify

import (
	"fmt"
	"strings"
	"time"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/solana"
)

// FormatTradeAlert renders one trade as a Markdown message.
func FormatTradeAlert(rec *domain.TradeRecord, symbol string, holders int) string {
	var sb strings.Builder

	if rec.Side == domain.SideBuy {
		sb.WriteString("🟢 *BUY*")
	} else {
		sb.WriteString("🔴 *SELL*")
	}
	if rec.LargeTrade {
		sb.WriteString(" 🐋")
	}
	sb.WriteString(fmt.Sprintf(" %s\n\n", symbol))

	sb.WriteString(fmt.Sprintf("Amount: %s %s for %s %s\n",
		formatAmount(rec.TokenAmount), symbol, formatAmount(rec.BaseAmount), rec.BaseAsset))
	if rec.PricePerToken > 0 {
		sb.WriteString(fmt.Sprintf("Price: %s %s per %s\n",
			formatPrice(rec.PricePerToken), rec.BaseAsset, symbol))
	}
	sb.WriteString(fmt.Sprintf("Venue: %s\n", rec.Venue))
	if rec.Counterparty != "" && rec.Counterparty != "Unknown" {
		sb.WriteString(fmt.Sprintf("Wallet: `%s`\n", solana.ShortAddress(rec.Counterparty)))
	}
	if holders > 0 {
		sb.WriteString(fmt.Sprintf("Holders: %d\n", holders))
	}
	sb.WriteString(fmt.Sprintf("\n[Transaction](https://solscan.io/tx/%s)", rec.Signature))

	return sb.String()
}

// FormatWindowSummary renders one batch window as a Markdown message, with a
// capped per-trade preview and a "+K more" suffix when truncated.
func FormatWindowSummary(s *domain.WindowSummary, symbol string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 *%s — last %ds*\n\n", symbol, s.WindowSeconds))
	sb.WriteString(fmt.Sprintf("Trades: %d (%d buys / %d sells)\n", s.Count, s.BuyCount, s.SellCount))
	sb.WriteString(fmt.Sprintf("Volume: %s base / %s %s\n",
		formatAmount(s.BaseVolume), formatAmount(s.TokenVolume), symbol))
	if s.LargeCount > 0 {
		sb.WriteString(fmt.Sprintf("Large trades: %d 🐋\n", s.LargeCount))
	}

	if len(s.Preview) > 0 {
		sb.WriteString("\n")
		for _, t := range s.Preview {
			marker := "🟢"
			if t.Side == domain.SideSell {
				marker = "🔴"
			}
			sb.WriteString(fmt.Sprintf("%s %s %s — %s %s\n",
				marker, strings.ToUpper(t.Side), formatAmount(t.TokenAmount),
				formatAmount(t.BaseAmount), t.BaseAsset))
		}
	}
	if s.Omitted > 0 {
		sb.WriteString(fmt.Sprintf("+%d more\n", s.Omitted))
	}

	return sb.String()
}

// FormatStartup renders the startup announcement.
func FormatStartup(symbol, mode string, startedAt time.Time) string {
	return fmt.Sprintf("🚀 *%s trade relay online*\nMode: %s\nStarted: %s",
		symbol, mode, startedAt.UTC().Format(time.RFC3339))
}

// formatAmount renders a quantity with sensible precision: whole-ish values
// get two decimals, small values keep more.
func formatAmount(v float64) string {
	switch {
	case v >= 1000:
		return fmt.Sprintf("%.0f", v)
	case v >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
	}
}

// formatPrice renders a per-token price, keeping precision for micro-cap
// prices.
func formatPrice(v float64) string {
	if v >= 0.01 {
		return fmt.Sprintf("%.4f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.9f", v), "0"), ".")
}
