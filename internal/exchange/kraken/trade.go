package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

const msgInvalidOrder = "EOrder:Invalid order"

// GetTrade looks up the trade referenced by trade.ExternalID. QueryTrades
// only knows settled trades; when the exchange answers "EOrder:Invalid
// order" the id may still be a live or cancelled order, so QueryOrders is
// tried as a fallback.
func (c *Client) GetTrade(ctx context.Context, trade core.Trade) (core.Trade, error) {
	if trade.ExternalID == "" {
		return core.Trade{}, fmt.Errorf("%w: trade external id is required", core.ErrValidation)
	}
	params := url.Values{}
	params.Set("txid", trade.ExternalID)

	result, err := c.Post(ctx, "QueryTrades", params)
	if err != nil {
		if exErr, ok := core.AsExchangeError(err); ok && exErr.HasMessage(msgInvalidOrder) {
			return c.queryOrderAsTrade(ctx, trade.ExternalID)
		}
		return core.Trade{}, err
	}

	var records map[string]tradeRecord
	if err := json.Unmarshal(result, &records); err != nil {
		return core.Trade{}, serverError(core.ErrBadBody, err)
	}
	rec, ok := records[trade.ExternalID]
	if !ok {
		return core.Trade{}, fmt.Errorf("%w: trade %s is not in response", core.ErrModule, trade.ExternalID)
	}
	return normalizeTradeRecord(trade.ExternalID, rec, result)
}

func (c *Client) queryOrderAsTrade(ctx context.Context, txid string) (core.Trade, error) {
	params := url.Values{}
	params.Set("txid", txid)
	result, err := c.Post(ctx, "QueryOrders", params)
	if err != nil {
		return core.Trade{}, err
	}
	var records map[string]queryOrder
	if err := json.Unmarshal(result, &records); err != nil {
		return core.Trade{}, serverError(core.ErrBadBody, err)
	}
	ord, ok := records[txid]
	if !ok {
		return core.Trade{}, fmt.Errorf("%w: order %s is not in response", core.ErrModule, txid)
	}
	return normalizeOrderRecord(txid, ord, result)
}

// PlaceTrade places a limit order: a sell when baseAmount is negative, a
// buy when positive. baseAmount is in base-currency subunits. The wire
// price is rounded to one decimal because the exchange rejects finer
// precision on these pairs.
func (c *Client) PlaceTrade(ctx context.Context, baseAmount int64, limitPrice float64, base, quote currency.Code) (core.Order, error) {
	pair, err := c.resolvePair(base, quote)
	if err != nil {
		return core.Order{}, err
	}
	if baseAmount == 0 {
		return core.Order{}, fmt.Errorf("%w: the base amount must be larger or smaller than 0", core.ErrValidation)
	}
	if math.IsNaN(limitPrice) || math.IsInf(limitPrice, 0) || limitPrice < 0 {
		return core.Order{}, fmt.Errorf("%w: the limit price must be a positive number", core.ErrValidation)
	}

	price := decimal.NewFromFloat(limitPrice).Round(1)
	side := core.SideBuy
	amount := baseAmount
	if baseAmount < 0 {
		side = core.SideSell
		amount = -baseAmount
	}
	volume, err := currency.FromSubunit(amount, pair.Base)
	if err != nil {
		return core.Order{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}

	params := url.Values{}
	params.Set("pair", pair.WirePair)
	params.Set("type", side)
	params.Set("ordertype", string(core.Limit))
	params.Set("price", price.String())
	params.Set("volume", volume.String())

	result, err := c.Post(ctx, "AddOrder", params)
	if err != nil {
		return core.Order{}, err
	}
	var placed addOrderResult
	if err := json.Unmarshal(result, &placed); err != nil {
		return core.Order{}, serverError(core.ErrBadBody, err)
	}
	if len(placed.TxID) == 0 {
		return core.Order{}, fmt.Errorf("%w: AddOrder response carries no transaction id", core.ErrModule)
	}

	roundedPrice, _ := price.Float64()
	return core.Order{
		ExternalID:    placed.TxID[0],
		Type:          core.Limit,
		State:         core.StateOpen,
		BaseCurrency:  pair.Base,
		BaseAmount:    baseAmount,
		QuoteCurrency: pair.Quote,
		LimitPrice:    roundedPrice,
		Raw:           result,
	}, nil
}

// ListTradeHistoryForPeriod returns the account's settled trades with
// timestamps inside [from, to], both inclusive. The range is re-checked
// client-side even though the request names it, as a guard against
// off-range entries. Entries whose pair cannot be parsed are logged and
// dropped. The result is sorted ascending by time.
func (c *Client) ListTradeHistoryForPeriod(ctx context.Context, from, to time.Time) ([]core.Trade, error) {
	if to.IsZero() || to.Before(from) {
		return nil, fmt.Errorf("%w: the history period must end at or after its start", core.ErrValidation)
	}

	params := url.Values{}
	params.Set("start", epochParam(from))
	params.Set("end", epochParam(to))
	result, err := c.Post(ctx, "TradesHistory", params)
	if err != nil {
		return nil, err
	}
	var history tradesHistoryResult
	if err := json.Unmarshal(result, &history); err != nil {
		return nil, serverError(core.ErrBadBody, err)
	}

	trades := make([]core.Trade, 0, len(history.Trades))
	for txid, rec := range history.Trades {
		ts := epochSeconds(rec.Time)
		if ts.Before(from) || ts.After(to) {
			continue
		}
		trade, err := normalizeTradeRecord(txid, rec, result)
		if err != nil {
			c.logf("level=WARN event=history_trade_dropped trade=%q err=%q", txid, err.Error())
			continue
		}
		trades = append(trades, trade)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].CreateTime.Before(trades[j].CreateTime)
	})
	return trades, nil
}

// ListTrades returns settled trades from latest.CreateTime (or the start of
// the ledger when latest is nil) up to now.
func (c *Client) ListTrades(ctx context.Context, latest *core.Trade) ([]core.Trade, error) {
	from := time.Unix(0, 0)
	if latest != nil && !latest.CreateTime.IsZero() {
		from = latest.CreateTime
	}
	return c.ListTradeHistoryForPeriod(ctx, from, time.Now())
}

// epochParam renders a timestamp the way the history endpoints expect:
// epoch seconds with millisecond decimals when present.
func epochParam(t time.Time) string {
	return strconv.FormatFloat(float64(t.UnixMilli())/1000, 'f', -1, 64)
}
