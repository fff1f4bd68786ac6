package solana

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/mr-tron/base58"
)

func TestValidAddress(t *testing.T) {
	if !ValidAddress(WSOLMint) {
		t.Error("WSOL mint should be a valid address")
	}
	if !ValidAddress(USDCMint) {
		t.Error("USDC mint should be a valid address")
	}

	invalid := []string{
		"",
		"tooshort",
		"0OIl-not-base58",
		"abc",
	}
	for _, addr := range invalid {
		if ValidAddress(addr) {
			t.Errorf("expected %q to be invalid", addr)
		}
	}
}

func TestIsOnCurve_GeneratedKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	addr := base58.Encode(pub)
	if !ValidAddress(addr) {
		t.Fatalf("generated key %s should be a valid address", addr)
	}
	if !IsOnCurve(addr) {
		t.Errorf("generated ed25519 key %s should be on curve", addr)
	}
}

func TestIsOnCurve_Malformed(t *testing.T) {
	cases := []string{
		"",
		"not-base58-0OIl",
		"abc",
	}
	for _, addr := range cases {
		if IsOnCurve(addr) {
			t.Errorf("expected %q to be off curve", addr)
		}
	}
}

func TestShortAddress(t *testing.T) {
	if got := ShortAddress(WSOLMint); got != "So11..1112" {
		t.Errorf("unexpected short form: %s", got)
	}
	if got := ShortAddress("abc"); got != "abc" {
		t.Errorf("short input should pass through, got %s", got)
	}
}

func TestBaseAssetSymbol(t *testing.T) {
	if got := BaseAssetSymbol(WSOLMint); got != "SOL" {
		t.Errorf("expected SOL, got %s", got)
	}
	if got := BaseAssetSymbol(USDTMint); got != "USDT" {
		t.Errorf("expected USDT, got %s", got)
	}
	// Unrecognized mints fall back to the short form.
	if got := BaseAssetSymbol("SomeUnknownMint1111111111111111111111111111"); got == "" {
		t.Error("expected non-empty fallback symbol")
	}
}
