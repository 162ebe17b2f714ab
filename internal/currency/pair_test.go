package currency

import "testing"

var testSupported = map[Code]bool{
	BTC: true, ETH: true, BSV: true, USDT: true, USD: true, EUR: true,
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, quote Code
		wantPair    string
		wantInverse bool
	}{
		{BTC, USD, "XXBTZUSD", false},
		{BTC, EUR, "XXBTZEUR", false},
		{ETH, USD, "XETHZUSD", false},
		{BSV, EUR, "BSVEUR", false},
		{USDT, USD, "USDTZUSD", false},
		{EUR, BTC, "XXBTZEUR", true},
		{USD, BTC, "XXBTZUSD", true},
		{EUR, ETH, "XETHZEUR", true},
		{USD, ETH, "XETHZUSD", true},
	}
	for _, tt := range tests {
		pair, err := Resolve(tt.base, tt.quote, testSupported)
		if err != nil {
			t.Fatalf("Resolve(%s, %s) error = %v", tt.base, tt.quote, err)
		}
		if pair.WirePair != tt.wantPair {
			t.Fatalf("Resolve(%s, %s) pair = %q, want %q", tt.base, tt.quote, pair.WirePair, tt.wantPair)
		}
		if pair.Inverse != tt.wantInverse {
			t.Fatalf("Resolve(%s, %s) inverse = %v, want %v", tt.base, tt.quote, pair.Inverse, tt.wantInverse)
		}
		if pair.Base != tt.base || pair.Quote != tt.quote {
			t.Fatalf("Resolve(%s, %s) kept pair = %s/%s, want requested order", tt.base, tt.quote, pair.Base, pair.Quote)
		}
	}
}

func TestResolveNormalizesCase(t *testing.T) {
	pair, err := Resolve("btc", "usd", testSupported)
	if err != nil {
		t.Fatalf("Resolve(btc, usd) error = %v", err)
	}
	if pair.WirePair != "XXBTZUSD" {
		t.Fatalf("Resolve(btc, usd) pair = %q, want XXBTZUSD", pair.WirePair)
	}
}

func TestResolveRejectsUnsupported(t *testing.T) {
	if _, err := Resolve("WAT", USD, testSupported); err == nil {
		t.Fatalf("Resolve(WAT, USD) should fail")
	}
	if _, err := Resolve(BTC, "WAT", testSupported); err == nil {
		t.Fatalf("Resolve(BTC, WAT) should fail")
	}
	if _, err := Resolve("", USD, testSupported); err == nil {
		t.Fatalf("Resolve with empty base should fail")
	}
	narrow := map[Code]bool{USD: true}
	if _, err := Resolve(BTC, USD, narrow); err == nil {
		t.Fatalf("Resolve outside the supported set should fail")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		wire      string
		wantBase  Code
		wantQuote Code
	}{
		{"XXBTZUSD", BTC, USD},
		{"XXBTZEUR", BTC, EUR},
		{"XBTZUSD", BTC, USD},
		{"XBTUSD", BTC, USD},
		{"XBTEUR", BTC, EUR},
		{"XBTUSDC", BTC, "USDC"},
		{"XETHZEUR", ETH, EUR},
		{"ZEURXETH", EUR, ETH},
		{"BSVEUR", BSV, EUR},
		{"USDTZUSD", USDT, USD},
		{"XXDGZEUR", "DOGE", EUR},
	}
	for _, tt := range tests {
		base, quote, err := Parse(tt.wire)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tt.wire, err)
		}
		if base != tt.wantBase || quote != tt.wantQuote {
			t.Fatalf("Parse(%q) = %s/%s, want %s/%s", tt.wire, base, quote, tt.wantBase, tt.wantQuote)
		}
	}
}

func TestParseRejectsUnknownPairs(t *testing.T) {
	for _, wire := range []string{"WATEUR", "XXBTZZZZ", "XBT", ""} {
		if _, _, err := Parse(wire); err == nil {
			t.Fatalf("Parse(%q) should fail", wire)
		}
	}
}

func TestParseRoundTripsResolvedPairs(t *testing.T) {
	for _, pair := range [][2]Code{{BTC, USD}, {BTC, EUR}, {ETH, EUR}, {BSV, EUR}, {USDT, USD}} {
		resolved, err := Resolve(pair[0], pair[1], testSupported)
		if err != nil {
			t.Fatalf("Resolve(%s, %s) error = %v", pair[0], pair[1], err)
		}
		base, quote, err := Parse(resolved.WirePair)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", resolved.WirePair, err)
		}
		if base != pair[0] || quote != pair[1] {
			t.Fatalf("Parse(%q) = %s/%s, want %s/%s", resolved.WirePair, base, quote, pair[0], pair[1])
		}
	}
}
