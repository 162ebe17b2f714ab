package currency

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestToSubunitString(t *testing.T) {
	tests := []struct {
		amount string
		code   Code
		want   int64
	}{
		{"4173.76106173", BTC, 417376106173},
		{"12.6721093800", BTC, 1267210938},
		{"0.0465757500", BTC, 4657575},
		{"0.01318", EUR, 1},
		{"5.0568", EUR, 506},
		{"505.685", EUR, 50569},
		{"-24952.5900", USD, -2495259},
		{"-0.005", USD, -1},
		{"0", EUR, 0},
	}
	for _, tt := range tests {
		got, err := ToSubunitString(tt.amount, tt.code)
		if err != nil {
			t.Fatalf("ToSubunitString(%q, %s) error = %v", tt.amount, tt.code, err)
		}
		if got != tt.want {
			t.Fatalf("ToSubunitString(%q, %s) = %d, want %d", tt.amount, tt.code, got, tt.want)
		}
	}
}

func TestToSubunitRejectsUnknownCurrency(t *testing.T) {
	if _, err := ToSubunit(decimal.NewFromInt(1), "WAT"); err == nil {
		t.Fatalf("ToSubunit with unknown currency should fail")
	}
	if _, err := FromSubunit(1, "WAT"); err == nil {
		t.Fatalf("FromSubunit with unknown currency should fail")
	}
	if _, err := ToSubunitString("not a number", EUR); err == nil {
		t.Fatalf("ToSubunitString with a malformed amount should fail")
	}
}

func TestFromSubunit(t *testing.T) {
	got, err := FromSubunit(1000000, BTC)
	if err != nil {
		t.Fatalf("FromSubunit() error = %v", err)
	}
	if got.String() != "0.01" {
		t.Fatalf("FromSubunit(1000000, BTC) = %s, want 0.01", got)
	}
	got, err = FromSubunit(-2495259, USD)
	if err != nil {
		t.Fatalf("FromSubunit() error = %v", err)
	}
	if got.String() != "-24952.59" {
		t.Fatalf("FromSubunit(-2495259, USD) = %s, want -24952.59", got)
	}
}

func TestSubunitRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 99, -99, 123456789, -987654321,
		999999999999999, 1000000000000000, -1000000000000000,
		math.MaxInt64, math.MinInt64,
	}
	for _, code := range []Code{BTC, ETH, BSV, USDT, USD, EUR} {
		for _, n := range values {
			main, err := FromSubunit(n, code)
			if err != nil {
				t.Fatalf("FromSubunit(%d, %s) error = %v", n, code, err)
			}
			back, err := ToSubunit(main, code)
			if err != nil {
				t.Fatalf("ToSubunit(%s, %s) error = %v", main, code, err)
			}
			if back != n {
				t.Fatalf("round trip of %d via %s = %d", n, code, back)
			}
		}
	}
}

func TestPrecision(t *testing.T) {
	if got := Precision(BTC); got != 8 {
		t.Fatalf("Precision(BTC) = %d, want 8", got)
	}
	if got := Precision(EUR); got != 2 {
		t.Fatalf("Precision(EUR) = %d, want 2", got)
	}
	// Unregistered codes fall back to the fiat default.
	if got := Precision("WAT"); got != 2 {
		t.Fatalf("Precision(WAT) = %d, want 2", got)
	}
}

func TestExchangeCodeMapping(t *testing.T) {
	if got := FromExchangeCode("XXBT"); got != BTC {
		t.Fatalf("FromExchangeCode(XXBT) = %s, want BTC", got)
	}
	if got := FromExchangeCode("ZEUR"); got != EUR {
		t.Fatalf("FromExchangeCode(ZEUR) = %s, want EUR", got)
	}
	if got := FromExchangeCode("BSV"); got != BSV {
		t.Fatalf("FromExchangeCode(BSV) = %s, want BSV", got)
	}
	if got, ok := ToExchangeCode(BTC); !ok || got != "XXBT" {
		t.Fatalf("ToExchangeCode(BTC) = %q/%v, want XXBT", got, ok)
	}
	if got, ok := ToExchangeCode(USDT); !ok || got != "USDT" {
		t.Fatalf("ToExchangeCode(USDT) = %q/%v, want USDT", got, ok)
	}
	if _, ok := ToExchangeCode("WAT"); ok {
		t.Fatalf("ToExchangeCode(WAT) should report no mapping")
	}
	if Known("WAT") {
		t.Fatalf("Known(WAT) = true, want false")
	}
	if !Known(BTC) || !Known(EUR) || !Known(BSV) {
		t.Fatalf("registered currencies should be Known")
	}
}
