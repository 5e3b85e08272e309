package symbols

import "strings"

// quote currencies tried when a symbol has no separator, in priority order.
var quoteSuffixes = []string{"USDT", "USDC", "USD", "BUSD", "DAI"}

// Normalize canonicalizes a raw venue symbol into BASE-USD form.
// Examples: "BTC-USD-PERP" -> "BTC-USD", "btcusdt" -> "BTC-USD",
// "SOL/USD:USD" -> "SOL-USD". Normalize is idempotent: adapters may call it
// on strings that were already partially normalized upstream.
func Normalize(raw string) string {
	sym := strings.ToUpper(strings.TrimSpace(raw))

	sym = strings.TrimSuffix(sym, "-PERP")
	sym = strings.TrimSuffix(sym, "_PERP")
	sym = strings.TrimSuffix(sym, "PERP")
	sym = strings.TrimSuffix(sym, ":USD")
	if strings.HasSuffix(sym, "/USD") {
		sym = strings.TrimSuffix(sym, "/USD") + "-USD"
	}

	// Concatenated pairs like BTCUSDT carry no separator; split on a known
	// quote suffix when the remaining base is at least two characters.
	if !strings.ContainsAny(sym, "-/") {
		for _, quote := range quoteSuffixes {
			if base, ok := strings.CutSuffix(sym, quote); ok && len(base) >= 2 {
				sym = base + "-USD"
				break
			}
		}
	}

	sym = strings.ReplaceAll(sym, "/", "-")

	if !strings.Contains(sym, "-") {
		sym += "-USD"
	}

	// Collapse stablecoin quotes to USD.
	for _, quote := range []string{"-USDT", "-USDC", "-BUSD"} {
		if base, ok := strings.CutSuffix(sym, quote); ok {
			sym = base + "-USD"
			break
		}
	}

	return sym
}
