package kraken

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

// pairResultKey finds the payload for pair inside a keyed result map.
// Kraken occasionally labels the entry with the slash form ("BTC/USD")
// instead of the concatenated wire code; that alias is accepted too.
func pairResultKey(keys map[string]json.RawMessage, pair currency.Pair) (json.RawMessage, bool) {
	if raw, ok := keys[pair.WirePair]; ok {
		return raw, true
	}
	base, quote, err := currency.Parse(pair.WirePair)
	if err != nil {
		return nil, false
	}
	raw, ok := keys[string(base)+"/"+string(quote)]
	return raw, ok
}

func normalizeOrderBook(result json.RawMessage, pair currency.Pair) (core.OrderBook, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(result, &keyed); err != nil {
		return core.OrderBook{}, serverError(core.ErrBadBody, err)
	}
	raw, ok := pairResultKey(keyed, pair)
	if !ok {
		return core.OrderBook{}, fmt.Errorf("%w: currency pair %s is not in response", core.ErrModule, pair.WirePair)
	}
	var levels depthLevels
	if err := json.Unmarshal(raw, &levels); err != nil {
		return core.OrderBook{}, serverError(core.ErrBadBody, err)
	}

	book := core.OrderBook{
		BaseCurrency:  pair.Base,
		QuoteCurrency: pair.Quote,
		Bids:          make([]core.OrderBookEntry, 0, len(levels.Bids)),
		Asks:          make([]core.OrderBookEntry, 0, len(levels.Asks)),
	}
	for _, entry := range levels.Bids {
		normalized, err := normalizeDepthEntry(entry, pair)
		if err != nil {
			return core.OrderBook{}, err
		}
		book.Bids = append(book.Bids, normalized)
	}
	for _, entry := range levels.Asks {
		normalized, err := normalizeDepthEntry(entry, pair)
		if err != nil {
			return core.OrderBook{}, err
		}
		book.Asks = append(book.Asks, normalized)
	}
	return book, nil
}

// normalizeDepthEntry converts one price level. For inverse-quoted pairs
// the price flips to its reciprocal and the level size is price*volume in
// subunits of the resolution base (the wire pair's quote leg).
func normalizeDepthEntry(entry depthEntry, pair currency.Pair) (core.OrderBookEntry, error) {
	price, err := decimal.NewFromString(entry.Price)
	if err != nil {
		return core.OrderBookEntry{}, serverError(core.ErrBadBody, fmt.Errorf("invalid price %q: %w", entry.Price, err))
	}
	volume, err := decimal.NewFromString(entry.Volume)
	if err != nil {
		return core.OrderBookEntry{}, serverError(core.ErrBadBody, fmt.Errorf("invalid volume %q: %w", entry.Volume, err))
	}
	if pair.Inverse {
		amount, convErr := currency.ToSubunit(price.Mul(volume), pair.Base)
		if convErr != nil {
			return core.OrderBookEntry{}, fmt.Errorf("%w: %v", core.ErrModule, convErr)
		}
		priceF, _ := price.Float64()
		return core.OrderBookEntry{Price: 1 / priceF, BaseAmount: amount}, nil
	}
	amount, convErr := currency.ToSubunit(volume, pair.Base)
	if convErr != nil {
		return core.OrderBookEntry{}, fmt.Errorf("%w: %v", core.ErrModule, convErr)
	}
	priceF, _ := price.Float64()
	return core.OrderBookEntry{Price: priceF, BaseAmount: amount}, nil
}

func normalizeTicker(result json.RawMessage, pair currency.Pair) (core.Ticker, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(result, &keyed); err != nil {
		return core.Ticker{}, serverError(core.ErrBadBody, err)
	}
	raw, ok := pairResultKey(keyed, pair)
	if !ok {
		return core.Ticker{}, fmt.Errorf("%w: currency pair %s is not in response", core.ErrModule, pair.WirePair)
	}
	var info tickerInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return core.Ticker{}, serverError(core.ErrBadBody, err)
	}
	if len(info.Ask) < 1 || len(info.Bid) < 1 || len(info.Last) < 1 ||
		len(info.High) < 2 || len(info.Low) < 2 || len(info.Vwap) < 2 || len(info.Vol) < 2 {
		return core.Ticker{}, serverError(core.ErrBadBody, fmt.Errorf("ticker payload for %s is incomplete", pair.WirePair))
	}

	ask, err := parseTickerField("ask", info.Ask[0])
	if err != nil {
		return core.Ticker{}, err
	}
	bid, err := parseTickerField("bid", info.Bid[0])
	if err != nil {
		return core.Ticker{}, err
	}
	last, err := parseTickerField("last", info.Last[0])
	if err != nil {
		return core.Ticker{}, err
	}
	high, err := parseTickerField("high", info.High[1])
	if err != nil {
		return core.Ticker{}, err
	}
	low, err := parseTickerField("low", info.Low[1])
	if err != nil {
		return core.Ticker{}, err
	}
	vwap, err := parseTickerField("vwap", info.Vwap[1])
	if err != nil {
		return core.Ticker{}, err
	}
	// The raw volume is denominated in the wire pair's base leg, which for
	// an inverse listing is this pair's quote currency.
	volumeCurrency := pair.Base
	if pair.Inverse {
		volumeCurrency = pair.Quote
	}
	volume, err := currency.ToSubunitString(info.Vol[1], volumeCurrency)
	if err != nil {
		return core.Ticker{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}

	ticker := core.Ticker{
		BaseCurrency:  pair.Base,
		QuoteCurrency: pair.Quote,
		Bid:           bid,
		Ask:           ask,
		LastPrice:     last,
		High24Hours:   high,
		Low24Hours:    low,
		Vwap24Hours:   vwap,
		Volume24Hours: volume,
	}
	if pair.Inverse {
		// Inversion swaps which side is bid and which is ask, and the
		// 24h extremes trade places too. Volume already carries the
		// quote-currency denomination from the conversion above.
		ticker.Bid = 1 / ask
		ticker.Ask = 1 / bid
		ticker.LastPrice = 1 / last
		ticker.High24Hours = 1 / low
		ticker.Low24Hours = 1 / high
		ticker.Vwap24Hours = 1 / vwap
	}
	return ticker, nil
}

func parseTickerField(name, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, serverError(core.ErrBadBody, fmt.Errorf("invalid ticker %s %q: %w", name, value, err))
	}
	return f, nil
}

// normalizeBalance merges total balances with the reserves implied by open
// orders. Assets outside the supported set are skipped; orders whose pair
// fails to parse are reported through onDrop and skipped.
func normalizeBalance(balances map[string]string, open map[string]queryOrder, supported map[currency.Code]bool, onDrop func(id string, err error)) (core.Balance, error) {
	total := make(map[currency.Code]int64, len(supported))
	reserved := make(map[currency.Code]int64, len(supported))
	for c := range supported {
		total[c] = 0
		reserved[c] = 0
	}

	for asset, amount := range balances {
		c := currency.FromExchangeCode(asset)
		if !supported[c] {
			continue
		}
		subunits, err := currency.ToSubunitString(amount, c)
		if err != nil {
			return core.Balance{}, serverError(core.ErrBadBody, err)
		}
		total[c] = subunits
	}

	for id, order := range open {
		base, quote, err := currency.Parse(order.Descr.Pair)
		if err != nil {
			onDrop(id, err)
			continue
		}
		switch order.Descr.Type {
		case core.SideSell:
			if !supported[base] {
				continue
			}
			subunits, err := currency.ToSubunitString(order.Vol, base)
			if err != nil {
				onDrop(id, err)
				continue
			}
			reserved[base] += subunits
		case core.SideBuy:
			if !supported[quote] {
				continue
			}
			price, err := decimal.NewFromString(order.Descr.Price)
			if err != nil {
				onDrop(id, err)
				continue
			}
			volume, err := decimal.NewFromString(order.Vol)
			if err != nil {
				onDrop(id, err)
				continue
			}
			subunits, err := currency.ToSubunit(price.Mul(volume), quote)
			if err != nil {
				onDrop(id, err)
				continue
			}
			reserved[quote] += subunits
		}
	}

	available := make(map[currency.Code]int64, len(total))
	for c, t := range total {
		available[c] = t - reserved[c]
	}
	return core.Balance{Available: available, Total: total}, nil
}

// normalizeTradeRecord maps a closed trade record (QueryTrades or
// TradesHistory) to the uniform trade shape. Sells negate the base leg,
// buys negate the quote leg.
func normalizeTradeRecord(txid string, rec tradeRecord, raw json.RawMessage) (core.Trade, error) {
	base, quote, err := currency.Parse(rec.Pair)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	baseAmount, err := currency.ToSubunitString(rec.Vol, base)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	quoteAmount, err := currency.ToSubunitString(rec.Cost, quote)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	feeAmount, err := currency.ToSubunitString(rec.Fee, quote)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	if rec.Type == core.SideSell {
		baseAmount = -baseAmount
	}
	if rec.Type == core.SideBuy {
		quoteAmount = -quoteAmount
	}

	trade := core.Trade{
		ExternalID:    txid,
		Type:          core.OrderType(rec.OrderType),
		State:         core.StateClosed,
		BaseCurrency:  base,
		BaseAmount:    baseAmount,
		QuoteCurrency: quote,
		QuoteAmount:   &quoteAmount,
		FeeAmount:     &feeAmount,
		FeeCurrency:   quote,
		Raw:           raw,
	}
	if rec.Time > 0 {
		trade.CreateTime = epochSeconds(rec.Time)
	}
	return trade, nil
}

// normalizeOrderRecord maps a QueryOrders record. Open orders report cost
// and fee as zero; they become nil so callers can tell "not settled yet"
// from "settled at zero".
func normalizeOrderRecord(txid string, ord queryOrder, raw json.RawMessage) (core.Trade, error) {
	base, quote, err := currency.Parse(ord.Descr.Pair)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	baseAmount, err := currency.ToSubunitString(ord.Vol, base)
	if err != nil {
		return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
	}
	if ord.Descr.Type == core.SideSell {
		baseAmount = -baseAmount
	}

	state := core.State(ord.Status)
	if ord.Status == "canceled" {
		state = core.StateCancelled
	}

	trade := core.Trade{
		ExternalID:    txid,
		Type:          core.OrderType(ord.Descr.OrderType),
		State:         state,
		BaseCurrency:  base,
		BaseAmount:    baseAmount,
		QuoteCurrency: quote,
		FeeCurrency:   quote,
		Raw:           raw,
	}
	if state != core.StateOpen {
		quoteAmount, err := currency.ToSubunitString(ord.Cost, quote)
		if err != nil {
			return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
		}
		feeAmount, err := currency.ToSubunitString(ord.Fee, quote)
		if err != nil {
			return core.Trade{}, fmt.Errorf("%w: %v", core.ErrModule, err)
		}
		if ord.Descr.Type == core.SideBuy {
			quoteAmount = -quoteAmount
		}
		trade.QuoteAmount = &quoteAmount
		trade.FeeAmount = &feeAmount
	}
	if ord.OpenTm > 0 {
		trade.CreateTime = epochSeconds(ord.OpenTm)
	}
	return trade, nil
}

// normalizeLedgerEntry maps one withdrawal or deposit. Unrecognized asset
// codes yield ok=false so the caller can log and drop the entry, keeping
// the adapter tolerant of assets added on the exchange side.
func normalizeLedgerEntry(entry ledgerEntry) (core.Transaction, error) {
	c := currency.FromExchangeCode(entry.Asset)
	if !currency.Known(c) {
		return core.Transaction{}, fmt.Errorf("unrecognized asset %q", entry.Asset)
	}
	amount, err := currency.ToSubunitString(entry.Amount, c)
	if err != nil {
		return core.Transaction{}, err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ExternalID: entry.RefID,
		Type:       core.TransactionType(entry.Type),
		State:      core.StateCompleted,
		Currency:   c,
		Amount:     amount,
		Time:       epochSeconds(entry.Time),
		Raw:        raw,
	}, nil
}

// epochSeconds converts Kraken's fractional epoch-second timestamps to a
// UTC time with millisecond precision.
func epochSeconds(ts float64) time.Time {
	return time.UnixMilli(int64(ts * 1000)).UTC()
}
