package kraken

import (
	"encoding/json"
	"fmt"
)

// envelope is the uniform response wrapper Kraken puts around every
// endpoint: a (possibly empty) error array plus the actual result.
type envelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// depthEntry is one order book level. Kraken sends mixed-type tuples
// [priceString, volumeString, timestamp], hence the custom unmarshal.
type depthEntry struct {
	Price  string
	Volume string
}

func (d *depthEntry) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return err
	}
	if len(tuple) < 2 {
		return fmt.Errorf("depth entry has %d fields, want at least 2", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &d.Price); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &d.Volume)
}

type depthLevels struct {
	Asks []depthEntry `json:"asks"`
	Bids []depthEntry `json:"bids"`
}

// tickerInfo carries the fields of Kraken's Ticker payload that the
// adapter uses. Most are [today, last24h] or [price, volume] string arrays.
type tickerInfo struct {
	Ask  []string `json:"a"`
	Bid  []string `json:"b"`
	Last []string `json:"c"`
	Vol  []string `json:"v"`
	Vwap []string `json:"p"`
	Low  []string `json:"l"`
	High []string `json:"h"`
}

type orderDescr struct {
	Pair      string `json:"pair"`
	Type      string `json:"type"`
	OrderType string `json:"ordertype"`
	Price     string `json:"price"`
	Order     string `json:"order"`
}

// queryOrder is a record from OpenOrders or QueryOrders. Volume, cost and
// fee sit at the top level while the pair and side live under descr.
type queryOrder struct {
	Status string     `json:"status"`
	OpenTm float64    `json:"opentm"`
	Descr  orderDescr `json:"descr"`
	Vol    string     `json:"vol"`
	Cost   string     `json:"cost"`
	Fee    string     `json:"fee"`
}

type openOrdersResult struct {
	Open map[string]queryOrder `json:"open"`
}

// tradeRecord is a record from QueryTrades or TradesHistory.
type tradeRecord struct {
	Pair      string  `json:"pair"`
	Time      float64 `json:"time"`
	Type      string  `json:"type"`
	OrderType string  `json:"ordertype"`
	Price     string  `json:"price"`
	Cost      string  `json:"cost"`
	Fee       string  `json:"fee"`
	Vol       string  `json:"vol"`
}

type tradesHistoryResult struct {
	Trades map[string]tradeRecord `json:"trades"`
	Count  int                    `json:"count"`
}

type ledgerEntry struct {
	RefID  string  `json:"refid"`
	Time   float64 `json:"time"`
	Type   string  `json:"type"`
	Asset  string  `json:"asset"`
	Amount string  `json:"amount"`
	Fee    string  `json:"fee"`
}

type ledgersResult struct {
	Ledger map[string]ledgerEntry `json:"ledger"`
	Count  int                    `json:"count"`
}

type addOrderResult struct {
	TxID  []string `json:"txid"`
	Descr struct {
		Order string `json:"order"`
	} `json:"descr"`
}

type serverTimeResult struct {
	UnixTime int64  `json:"unixtime"`
	RFC1123  string `json:"rfc1123"`
}
