package kraken

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

// GetOrderBook fetches the current depth for base/quote. Bids and asks keep
// the order the exchange returned them in.
func (c *Client) GetOrderBook(ctx context.Context, base, quote currency.Code) (core.OrderBook, error) {
	pair, err := c.resolvePair(base, quote)
	if err != nil {
		return core.OrderBook{}, err
	}
	params := url.Values{}
	params.Set("pair", pair.WirePair)
	result, err := c.Post(ctx, "Depth", params)
	if err != nil {
		return core.OrderBook{}, err
	}
	return normalizeOrderBook(result, pair)
}

// GetTicker fetches 24h ticker statistics for base/quote.
func (c *Client) GetTicker(ctx context.Context, base, quote currency.Code) (core.Ticker, error) {
	pair, err := c.resolvePair(base, quote)
	if err != nil {
		return core.Ticker{}, err
	}
	params := url.Values{}
	params.Set("pair", pair.WirePair)
	result, err := c.Post(ctx, "Ticker", params)
	if err != nil {
		return core.Ticker{}, err
	}
	return normalizeTicker(result, pair)
}

// ServerTime returns the exchange's clock. Useful as an unauthenticated
// connectivity probe.
func (c *Client) ServerTime(ctx context.Context) (time.Time, error) {
	result, err := c.Get(ctx, "Time", nil)
	if err != nil {
		return time.Time{}, err
	}
	var parsed serverTimeResult
	if err := json.Unmarshal(result, &parsed); err != nil {
		return time.Time{}, serverError(core.ErrBadBody, err)
	}
	return time.Unix(parsed.UnixTime, 0).UTC(), nil
}
