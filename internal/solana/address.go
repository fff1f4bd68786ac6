package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidAddress reports whether s is a well-formed Solana address: base58
// text decoding to exactly 32 bytes. Program-derived addresses pass this
// check, so it is the right test for mints and token accounts.
func ValidAddress(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsOnCurve reports whether the address is a valid ed25519 curve point.
// Only on-curve addresses can sign, so a transaction fee payer that fails
// this check cannot be a real wallet.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
