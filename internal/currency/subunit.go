package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToSubunit converts an amount in a currency's main unit to the integer
// count of its smallest subunit (satoshi for BTC, cent for USD). Rounding is
// half away from zero, which is what decimal.Round does.
func ToSubunit(amount decimal.Decimal, c Code) (int64, error) {
	if !Known(c) {
		return 0, fmt.Errorf("unknown currency %q", c)
	}
	return amount.Shift(int32(Precision(c))).Round(0).IntPart(), nil
}

// FromSubunit converts an integer subunit count back to the main unit.
// The inverse of ToSubunit: FromSubunit then ToSubunit reproduces the input
// exactly for any int64.
func FromSubunit(n int64, c Code) (decimal.Decimal, error) {
	if !Known(c) {
		return decimal.Zero, fmt.Errorf("unknown currency %q", c)
	}
	return decimal.New(n, -int32(Precision(c))), nil
}

// ToSubunitString parses a decimal string as reported by the exchange and
// converts it to subunits in one step.
func ToSubunitString(amount string, c Code) (int64, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return ToSubunit(d, c)
}
