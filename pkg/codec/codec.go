package codec

import (
	"math/big"
	"regexp"
	"strings"
)

// ZeroAmount is what every unparseable or empty wei value formats to.
const ZeroAmount = "0.000000"

// weiPerToken is 10^18, the base-unit divisor for an 18-decimal token.
var weiPerToken = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// IsValidAddress reports whether s is a 0x-prefixed 20-byte hex address.
// Checksum casing is not enforced.
func IsValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// EncodeAddress encodes an address as a 32-byte left-padded call
// parameter: lower-cased, 0x stripped, zero-padded to 64 hex chars.
// The input is expected to already be a valid address; validation is
// the caller's concern.
func EncodeAddress(addr string) string {
	clean := strings.TrimPrefix(strings.ToLower(addr), "0x")
	if len(clean) >= 64 {
		return clean
	}
	return strings.Repeat("0", 64-len(clean)) + clean
}

// FormatAmount renders a hex-encoded wei value as a decimal token
// amount with exactly six fractional digits. Absent, empty, "0x" and
// unparseable inputs all degrade to ZeroAmount; this function never
// fails, so a bad RPC response can't block rendering.
func FormatAmount(hexWei string) string {
	clean := strings.TrimPrefix(hexWei, "0x")
	if clean == "" {
		return ZeroAmount
	}
	wei, ok := new(big.Int).SetString(clean, 16)
	if !ok || wei.Sign() < 0 {
		return ZeroAmount
	}
	amount := new(big.Float).SetInt(wei)
	amount.Quo(amount, weiPerToken)
	return amount.Text('f', 6)
}
