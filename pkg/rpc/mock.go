package rpc

import "strings"

// Demo-mode results, keyed by the selector prefix of the call data.
// Values are deliberately recognizable round numbers so demo output is
// plausible without masquerading as precise chain state. The selector
// strings are duplicated from the contract package on purpose: the
// mock tier must not depend on domain code.
var mockResults = []struct {
	prefix string
	result string
}{
	// withdrawable-amount variants: 0.5 tokens
	{"0xf3fef3a3", "0x00000000000000000000000000000000000000000000000006f05b59d3b20000"},
	{"0x1ac51b98", "0x00000000000000000000000000000000000000000000000006f05b59d3b20000"},
	// balanceOf: 10.25 tokens
	{"0x70a08231", "0x0000000000000000000000000000000000000000000000008e3f50b173c10000"},
}

const mockZero = "0x0000000000000000000000000000000000000000000000000000000000000000"

// mockResult picks a fabricated value by inspecting which selector the
// call data starts with. Unknown selectors yield a zero word rather
// than an error.
func mockResult(data string) string {
	for _, m := range mockResults {
		if strings.HasPrefix(data, m.prefix) {
			return m.result
		}
	}
	return mockZero
}
