package extract

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/mr-tron/base58"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/solana"
)

const (
	trackedMint = "Tracked1111111111111111111111111111111111111"
	otherMint   = "Other111111111111111111111111111111111111111"
)

// feePayer is a generated on-curve wallet address shared by the tests.
var feePayer = func() string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	return base58.Encode(pub)
}()

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	return New(Options{
		TrackedMint:         trackedMint,
		TrackedDecimals:     6,
		LargeTradeThreshold: 10,
		Logger:              log.New(io.Discard, "", 0),
	})
}

func swapTx(t *testing.T, swap interface{}) *helius.EnhancedTransaction {
	t.Helper()
	raw, err := json.Marshal(swap)
	if err != nil {
		t.Fatalf("marshal swap event: %v", err)
	}
	return &helius.EnhancedTransaction{
		Signature: "sig1",
		Timestamp: 1700000000,
		FeePayer:  feePayer,
		Events:    helius.Events{Swap: raw},
	}
}

func TestExtract_Buy(t *testing.T) {
	// 2 SOL in, 500 tokens out at 6 decimals.
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Account: feePayer, Amount: "2000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "500000000", Decimals: 6}},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.Side != domain.SideBuy {
		t.Errorf("expected buy, got %s", rec.Side)
	}
	if rec.BaseAmount != 2.0 {
		t.Errorf("expected base amount 2.0, got %f", rec.BaseAmount)
	}
	if rec.TokenAmount != 500 {
		t.Errorf("expected token amount 500, got %f", rec.TokenAmount)
	}
	if rec.PricePerToken != 0.004 {
		t.Errorf("expected price 0.004, got %f", rec.PricePerToken)
	}
	if rec.BaseAsset != "SOL" {
		t.Errorf("expected SOL base asset, got %s", rec.BaseAsset)
	}
	if rec.LargeTrade {
		t.Error("2 SOL should not be a large trade at threshold 10")
	}
	if rec.Counterparty != feePayer {
		t.Errorf("expected counterparty %s, got %s", feePayer, rec.Counterparty)
	}
}

func TestExtract_SellAgainstStable(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		TokenInputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1000000000", Decimals: 6}},
		},
		TokenOutputs: []helius.SwapToken{
			{Mint: solana.USDCMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "25000000", Decimals: 6}},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.Side != domain.SideSell {
		t.Errorf("expected sell, got %s", rec.Side)
	}
	if rec.BaseAmount != 25 {
		t.Errorf("expected base amount 25, got %f", rec.BaseAmount)
	}
	if rec.TokenAmount != 1000 {
		t.Errorf("expected token amount 1000, got %f", rec.TokenAmount)
	}
	if rec.BaseAsset != "USDC" {
		t.Errorf("expected USDC base asset, got %s", rec.BaseAsset)
	}
	if !rec.LargeTrade {
		t.Error("25 USDC should be large at threshold 10")
	}
}

func TestExtract_NoTrackedLeg(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: otherMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "42", Decimals: 0}},
		},
	})

	if rec := testExtractor(t).Extract(tx); rec != nil {
		t.Fatalf("expected nil for swap without tracked leg, got %+v", rec)
	}
}

func TestExtract_TokenToTokenSwap(t *testing.T) {
	// Tracked token against an unrecognized quote: no base leg, no trade.
	tx := swapTx(t, helius.SwapEvent{
		TokenInputs: []helius.SwapToken{
			{Mint: otherMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "100", Decimals: 0}},
		},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "500000000", Decimals: 6}},
		},
	})

	if rec := testExtractor(t).Extract(tx); rec != nil {
		t.Fatalf("expected nil for token-to-token swap, got %+v", rec)
	}
}

func TestExtract_ArrayShape(t *testing.T) {
	// Array shape: second entry carries the tracked token.
	tx := swapTx(t, []helius.SwapEvent{
		{
			TokenInputs: []helius.SwapToken{
				{Mint: otherMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1", Decimals: 0}},
			},
		},
		{
			NativeInput: &helius.NativeAmount{Amount: "500000000"},
			TokenOutputs: []helius.SwapToken{
				{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "250000000", Decimals: 6}},
			},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record from array-shaped swap section")
	}
	if rec.Side != domain.SideBuy || rec.BaseAmount != 0.5 || rec.TokenAmount != 250 {
		t.Errorf("unexpected record %+v", rec)
	}
}

func TestExtract_InnerSwaps(t *testing.T) {
	// Routed swap: tracked token only appears in the inner hops, with
	// already-normalized amounts.
	tx := swapTx(t, helius.SwapEvent{
		InnerSwaps: []helius.InnerSwap{
			{
				TokenInputs:  []helius.TokenTransfer{{Mint: solana.WSOLMint, TokenAmount: 1.5}},
				TokenOutputs: []helius.TokenTransfer{{Mint: trackedMint, TokenAmount: 300}},
				ProgramInfo:  &helius.ProgramInfo{Source: "ORCA"},
			},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record from inner swaps")
	}
	if rec.Side != domain.SideBuy {
		t.Errorf("expected buy, got %s", rec.Side)
	}
	if rec.BaseAmount != 1.5 || rec.TokenAmount != 300 {
		t.Errorf("unexpected amounts: base=%f token=%f", rec.BaseAmount, rec.TokenAmount)
	}
	if rec.Venue != "Orca" {
		t.Errorf("expected Orca venue from inner program info, got %s", rec.Venue)
	}
}

func TestExtract_VenueFromSourceLabel(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1000000", Decimals: 6}},
		},
	})
	tx.Source = "PUMP_FUN"
	tx.Instructions = []helius.Instruction{{ProgramID: RaydiumAMMV4}}

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	// Source label beats the instruction table.
	if rec.Venue != "Pump Fun" {
		t.Errorf("expected Pump Fun venue, got %s", rec.Venue)
	}
}

func TestExtract_VenueFromProgramTable(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1000000", Decimals: 6}},
		},
	})
	tx.Source = "UNKNOWN"
	tx.Instructions = []helius.Instruction{
		{ProgramID: "ComputeBudget111111111111111111111111111111"},
		{ProgramID: JupiterV6},
	}

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.Venue != "Jupiter" {
		t.Errorf("expected Jupiter venue, got %s", rec.Venue)
	}
}

func TestExtract_UnknownVenue(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1000000", Decimals: 6}},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.Venue != domain.VenueUnknown {
		t.Errorf("expected %s, got %s", domain.VenueUnknown, rec.Venue)
	}
}

func TestExtract_ZeroTokenAmount(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "0", Decimals: 6}},
		},
	})

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.PricePerToken != 0 {
		t.Errorf("expected price 0 for zero token amount, got %f", rec.PricePerToken)
	}
}

func TestExtract_MalformedInputs(t *testing.T) {
	e := testExtractor(t)

	cases := []struct {
		name string
		tx   *helius.EnhancedTransaction
	}{
		{"nil transaction", nil},
		{"no signature", &helius.EnhancedTransaction{}},
		{"failed transaction", &helius.EnhancedTransaction{
			Signature:        "sig",
			TransactionError: &helius.TxError{Error: "custom program error"},
		}},
		{"no swap section", &helius.EnhancedTransaction{Signature: "sig"}},
		{"garbage swap section", &helius.EnhancedTransaction{
			Signature: "sig",
			Events:    helius.Events{Swap: json.RawMessage(`"not a swap"`)},
		}},
		{"non-numeric amount", swapTx(t, helius.SwapEvent{
			NativeInput: &helius.NativeAmount{Amount: "abc"},
			TokenOutputs: []helius.SwapToken{
				{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "xyz", Decimals: 6}},
			},
		})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := e.Extract(tc.tx); rec != nil {
				t.Errorf("expected nil, got %+v", rec)
			}
		})
	}
}

func TestExtract_CounterpartyOffCurve(t *testing.T) {
	tx := swapTx(t, helius.SwapEvent{
		NativeInput: &helius.NativeAmount{Amount: "1000000000"},
		TokenOutputs: []helius.SwapToken{
			{Mint: trackedMint, RawTokenAmount: helius.RawTokenAmount{TokenAmount: "1000000", Decimals: 6}},
		},
	})
	tx.FeePayer = "not-an-address"

	rec := testExtractor(t).Extract(tx)
	if rec == nil {
		t.Fatal("expected a trade record")
	}
	if rec.Counterparty != "Unknown" {
		t.Errorf("expected Unknown counterparty, got %s", rec.Counterparty)
	}
}
