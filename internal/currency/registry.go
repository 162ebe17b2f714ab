package currency

// Code is a normalized 3-4 letter currency code (BTC, USD, ETH, ...).
type Code string

const (
	BTC  Code = "BTC"
	ETH  Code = "ETH"
	BSV  Code = "BSV"
	USDT Code = "USDT"
	USD  Code = "USD"
	EUR  Code = "EUR"
)

// toExchange maps normalized codes to the asset codes Kraken reports in
// balances and ledgers. Pass-through codes are absent here; they map to
// themselves.
var toExchange = map[Code]string{
	"BTC":  "XXBT",
	"ETH":  "XETH",
	"ETC":  "XETC",
	"LTC":  "XLTC",
	"NMC":  "XNMC",
	"DOGE": "XXDG",
	"XLM":  "XXLM",
	"XRP":  "XXRP",
	"XVN":  "XXVN",
	"CAD":  "ZCAD",
	"EUR":  "ZEUR",
	"GBP":  "ZGBP",
	"JPY":  "ZJPY",
	"KRW":  "ZKRW",
	"USD":  "ZUSD",
	"KFEE": "KFEE",
}

// fromExchange is the reverse of toExchange plus the short alternates Kraken
// uses inside pair strings (XBT, XDG, ...). Kraken accepts both forms but is
// not consistent about which one it returns.
var fromExchange = map[string]Code{
	"XXBT": "BTC",
	"XBT":  "BTC",
	"XETH": "ETH",
	"XETC": "ETC",
	"XLTC": "LTC",
	"XNMC": "NMC",
	"XXDG": "DOGE",
	"XDG":  "DOGE",
	"XXLM": "XLM",
	"XLM":  "XLM",
	"XXRP": "XRP",
	"XRP":  "XRP",
	"XXVN": "XVN",
	"XVN":  "XVN",
	"ZCAD": "CAD",
	"ZEUR": "EUR",
	"ZGBP": "GBP",
	"ZJPY": "JPY",
	"ZKRW": "KRW",
	"ZUSD": "USD",
	"KFEE": "KFEE",
}

// passThrough holds the codes Kraken embeds verbatim in pair strings,
// without an X/Z prefix. Fiat appears here too: order descriptions use the
// bare form (XBTEUR) even though balances use the prefixed one (ZEUR).
var passThrough = map[string]bool{
	"BSV":  true,
	"USDC": true,
	"USDT": true,
	"TRX":  true,
	"DAI":  true,
	"USD":  true,
	"EUR":  true,
	"GBP":  true,
}

// precision maps a currency to the number of decimals of its main unit.
// Codes absent from this table fall back to 2; that default is a deliberate
// policy applied only by Precision, every other lookup goes through Known.
var precision = map[Code]int{
	"BTC":  8,
	"ETH":  8,
	"BSV":  8,
	"LTC":  8,
	"ETC":  8,
	"NMC":  8,
	"DOGE": 8,
	"XLM":  8,
	"XRP":  8,
	"XVN":  8,
	"USDT": 8,
	"USDC": 8,
	"TRX":  8,
	"DAI":  8,
	"USD":  2,
	"EUR":  2,
	"GBP":  2,
	"CAD":  2,
	"JPY":  2,
	"KRW":  2,
}

// ToExchangeCode converts a normalized code to Kraken's asset code. The
// second return is false when the code has no registered mapping and is not
// a pass-through code.
func ToExchangeCode(c Code) (string, bool) {
	if ex, ok := toExchange[c]; ok {
		return ex, true
	}
	if passThrough[string(c)] {
		return string(c), true
	}
	return "", false
}

// FromExchangeCode converts a Kraken asset code to the normalized currency
// code. Unmapped codes are returned unchanged so that assets added on the
// exchange side pass through instead of failing.
func FromExchangeCode(asset string) Code {
	if c, ok := fromExchange[asset]; ok {
		return c
	}
	return Code(asset)
}

// IsPassThrough reports whether Kraken uses the code verbatim in pair
// strings.
func IsPassThrough(code string) bool {
	return passThrough[code]
}

// Known reports whether the code is part of the registry, either via an
// exchange mapping or as a pass-through code. Amount conversions reject
// codes that are not Known.
func Known(c Code) bool {
	if _, ok := toExchange[c]; ok {
		return true
	}
	if _, ok := precision[c]; ok {
		return true
	}
	return passThrough[string(c)]
}

// Precision returns the number of main-unit decimals for the code,
// defaulting to 2 for registered codes without an explicit entry.
func Precision(c Code) int {
	if p, ok := precision[c]; ok {
		return p
	}
	return 2
}
