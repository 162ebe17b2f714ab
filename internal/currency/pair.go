package currency

import (
	"fmt"
	"strings"
)

// Pair is the resolution of a base/quote currency pair against Kraken's
// listing. It is built per request and carries everything a response
// normalizer needs: the wire pair string and whether Kraken lists the pair
// only in reversed order.
type Pair struct {
	Base     Code
	Quote    Code
	WirePair string
	// Inverse means Kraken lists the pair as Quote/Base, so prices must be
	// reciprocal-flipped and the amount legs swapped when normalizing.
	Inverse bool
}

// xzBases are the assets Kraken always lists X-prefixed with a Z-prefixed
// quote (XXBTZUSD, XETHZEUR).
var xzBases = map[Code]bool{
	"BTC": true,
	"ETH": true,
}

// inversePairs maps a base+quote concatenation to the pair Kraken actually
// lists. EUR/ETH is only listed as ETH/EUR, and so on.
var inversePairs = map[string]struct{ base, quote Code }{
	"EURBTC": {"BTC", "EUR"},
	"USDBTC": {"BTC", "USD"},
	"EURETH": {"ETH", "EUR"},
	"USDETH": {"ETH", "USD"},
}

// pairShort returns the short asset form Kraken uses inside pair strings.
// Balances say XXBT, pairs say XBT.
func pairShort(c Code) string {
	switch c {
	case "BTC":
		return "XBT"
	case "DOGE":
		return "XDG"
	default:
		return string(c)
	}
}

// Resolve validates base/quote against the configured supported set and
// derives the Kraken pair string. The rule order matters and must not be
// rearranged: X/Z-listed bases first, then the USDT/USD special case, then
// registered inverse listings, then plain concatenation.
func Resolve(base, quote Code, supported map[Code]bool) (Pair, error) {
	if base == "" || quote == "" {
		return Pair{}, fmt.Errorf("missing base currency or quote currency")
	}
	base = Code(strings.ToUpper(string(base)))
	quote = Code(strings.ToUpper(string(quote)))
	if !supported[base] || !supported[quote] {
		return Pair{}, fmt.Errorf("unsupported currency pair %s/%s", base, quote)
	}

	p := Pair{Base: base, Quote: quote}
	switch {
	case xzBases[base]:
		p.WirePair = "X" + pairShort(base) + "Z" + string(quote)
	case base == "USDT" && quote == "USD":
		p.WirePair = "USDTZ" + string(quote)
	default:
		if inv, ok := inversePairs[string(base)+string(quote)]; ok {
			p.Inverse = true
			p.WirePair = "X" + pairShort(inv.base) + "Z" + string(inv.quote)
		} else {
			p.WirePair = string(base) + string(quote)
		}
	}
	return p, nil
}

// Parse decomposes a Kraken pair string back into normalized base and quote
// codes. Kraken asset codes are 3 or 4 characters, so the split point is
// ambiguous; the 4-character slice is tried first and the 3-character slice
// second, and that order must be kept (XBTUSDC parses as XBT+USDC only
// because XBTU is not a known code). Once a 4-character base is accepted
// the split is committed: a remainder that fails to convert is an error,
// with no retry at the 3-character split. No listed pair needs the retry,
// and committing keeps a malformed remainder from being reinterpreted as a
// different pair.
func Parse(wire string) (Code, Code, error) {
	if len(wire) > 4 {
		if base, ok := sliceCode(wire[:4]); ok {
			quote, ok := sliceCode(wire[4:])
			if !ok {
				return "", "", fmt.Errorf("unknown quote currency in pair %q", wire)
			}
			return base, quote, nil
		}
	}
	if len(wire) > 3 {
		if base, ok := sliceCode(wire[:3]); ok {
			quote, ok := sliceCode(wire[3:])
			if !ok {
				return "", "", fmt.Errorf("unknown quote currency in pair %q", wire)
			}
			return base, quote, nil
		}
	}
	return "", "", fmt.Errorf("unknown base currency in pair %q", wire)
}

// sliceCode accepts a pair slice when the exchange mapping actually changed
// it (ZUSD -> USD) or when it is a registered pass-through code. A slice
// that maps to itself without being pass-through is a miss, not a currency.
func sliceCode(s string) (Code, bool) {
	c := FromExchangeCode(s)
	if string(c) != s {
		return c, true
	}
	if IsPassThrough(s) {
		return c, true
	}
	return "", false
}
