package contract

import "gnoclaim/pkg/codec"

// Function selectors for the claim and token contracts. These are
// fixed constants rather than runtime signature hashes; when pointing
// the client at a new deployment, verify them against the contract's
// actual ABI.
const (
	selWithdrawableAmount    = "0xf3fef3a3" // withdrawableAmount(address)
	selWithdrawableAmountAlt = "0x1ac51b98" // older deployments
	selBalanceOf             = "0x70a08231" // balanceOf(address)
	selClaim                 = "0x4e71d92d" // claim(), operates on the caller
	selWithdraw              = "0x3ccfd60b" // withdraw(), operates on the caller
	selClaimWithdrawal       = "0x4782f779" // claimWithdrawal(address)
	selClaimWithdrawalAlt    = "0x5cc4aa9f" // older deployments
)

// withdrawableCandidates returns the call-data encodings for the
// withdrawable-amount query, in priority order.
func withdrawableCandidates(account string) []string {
	param := codec.EncodeAddress(account)
	return []string{
		selWithdrawableAmount + param,
		selWithdrawableAmountAlt + param,
	}
}

// balanceCandidates returns the single balanceOf encoding. No known
// deployment uses an alternate name for it.
func balanceCandidates(account string) []string {
	return []string{selBalanceOf + codec.EncodeAddress(account)}
}

// claimCandidates returns the claim encodings in priority order:
// parameterless variants first (contracts whose claim operates on the
// caller), then the address-parameterized primary and its alternate.
func claimCandidates(account string) []string {
	param := codec.EncodeAddress(account)
	return []string{
		selClaim,
		selWithdraw,
		selClaimWithdrawal + param,
		selClaimWithdrawalAlt + param,
	}
}
