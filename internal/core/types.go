package core

import (
	"encoding/json"
	"time"

	"kraken-exc/internal/currency"
)

type State string

type TransactionType string

type OrderType string

const (
	StateOpen      State = "open"
	StateClosed    State = "closed"
	StateCancelled State = "cancelled"
	StateCompleted State = "completed"
)

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
)

const (
	Limit  OrderType = "limit"
	Market OrderType = "market"
)

const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// OrderBookEntry is one price level. BaseAmount is in subunits of the order
// book's base currency.
type OrderBookEntry struct {
	Price      float64
	BaseAmount int64
}

// OrderBook keeps bids and asks in the order the exchange returned them;
// no re-sorting is performed.
type OrderBook struct {
	BaseCurrency  currency.Code
	QuoteCurrency currency.Code
	Bids          []OrderBookEntry
	Asks          []OrderBookEntry
}

type Ticker struct {
	BaseCurrency  currency.Code
	QuoteCurrency currency.Code
	Bid           float64
	Ask           float64
	LastPrice     float64
	High24Hours   float64
	Low24Hours    float64
	Vwap24Hours   float64
	// Volume24Hours is in base-currency subunits, or quote-currency
	// subunits for inverse-quoted pairs.
	Volume24Hours int64
}

// Balance maps each supported currency to integer subunit amounts.
type Balance struct {
	Available map[currency.Code]int64
	Total     map[currency.Code]int64
}

// Trade is a normalized trade or order-query result. Amounts are signed
// subunits from the account's perspective: the leg given up is negative,
// the leg received is positive. QuoteAmount and FeeAmount are nil while the
// order is still open, so callers can tell "not settled yet" from "settled
// at zero cost". Values are never mutated after construction.
type Trade struct {
	ExternalID    string
	Type          OrderType
	State         State
	BaseCurrency  currency.Code
	BaseAmount    int64
	QuoteCurrency currency.Code
	QuoteAmount   *int64
	FeeAmount     *int64
	FeeCurrency   currency.Code
	CreateTime    time.Time
	Raw           json.RawMessage
}

// Order is the result of placing a limit order. The quote leg is unknown
// until the order settles, so it carries no quote amount.
type Order struct {
	ExternalID    string
	Type          OrderType
	State         State
	BaseCurrency  currency.Code
	BaseAmount    int64
	QuoteCurrency currency.Code
	LimitPrice    float64
	Raw           json.RawMessage
}

// Transaction is a single ledger entry: one deposit or one withdrawal.
type Transaction struct {
	ExternalID string
	Type       TransactionType
	State      State
	Currency   currency.Code
	Amount     int64
	Time       time.Time
	Raw        json.RawMessage
}

// TickerUpdate is one message from the streaming ticker feed.
type TickerUpdate struct {
	BaseCurrency  currency.Code
	QuoteCurrency currency.Code
	Bid           float64
	Ask           float64
	LastPrice     float64
	Time          time.Time
}
