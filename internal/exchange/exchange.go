package exchange

import (
	"context"
	"time"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

// Exchange is the normalized trading/accounting surface of an exchange
// adapter. Every operation is a one-shot request/response transform; none
// of them hold state between calls.
type Exchange interface {
	Name() string
	GetOrderBook(ctx context.Context, base, quote currency.Code) (core.OrderBook, error)
	GetTicker(ctx context.Context, base, quote currency.Code) (core.Ticker, error)
	GetBalance(ctx context.Context) (core.Balance, error)
	GetTrade(ctx context.Context, trade core.Trade) (core.Trade, error)
	PlaceTrade(ctx context.Context, baseAmount int64, limitPrice float64, base, quote currency.Code) (core.Order, error)
	ListTransactions(ctx context.Context, latest *core.Transaction) ([]core.Transaction, error)
	ListTradeHistoryForPeriod(ctx context.Context, from, to time.Time) ([]core.Trade, error)
	ListTrades(ctx context.Context, latest *core.Trade) ([]core.Trade, error)
}
