package kraken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

func depthServer(t *testing.T, wantPair, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0/public/Depth" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if got := r.PostForm.Get("pair"); got != wantPair {
			t.Errorf("pair = %q, want %q", got, wantPair)
		}
		_, _ = w.Write([]byte(payload))
	}))
}

func TestGetOrderBook(t *testing.T) {
	srv := depthServer(t, "XXBTZUSD", `{"error":[],"result":{"XXBTZUSD":{
		"asks":[["541.77000","3.190",1420928626],["542.00000","1.000",1420928629]],
		"bids":[["541.19000","1.933",1420928628]]}}}`)
	defer srv.Close()

	c := newTestClient(srv)
	book, err := c.GetOrderBook(context.Background(), currency.BTC, currency.USD)
	if err != nil {
		t.Fatalf("GetOrderBook() error = %v", err)
	}
	if book.BaseCurrency != currency.BTC || book.QuoteCurrency != currency.USD {
		t.Fatalf("book pair = %s/%s, want BTC/USD", book.BaseCurrency, book.QuoteCurrency)
	}
	if len(book.Asks) != 2 || len(book.Bids) != 1 {
		t.Fatalf("book levels = %d asks / %d bids, want 2/1", len(book.Asks), len(book.Bids))
	}
	wantBid := core.OrderBookEntry{Price: 541.19, BaseAmount: 193300000}
	if book.Bids[0] != wantBid {
		t.Fatalf("bid = %+v, want %+v", book.Bids[0], wantBid)
	}
	wantAsk := core.OrderBookEntry{Price: 541.77, BaseAmount: 319000000}
	if book.Asks[0] != wantAsk {
		t.Fatalf("ask = %+v, want %+v", book.Asks[0], wantAsk)
	}
}

func TestGetOrderBookSlashAliasKey(t *testing.T) {
	srv := depthServer(t, "XXBTZUSD", `{"error":[],"result":{"BTC/USD":{
		"asks":[],"bids":[["541.19000","1.933",1420928628]]}}}`)
	defer srv.Close()

	c := newTestClient(srv)
	book, err := c.GetOrderBook(context.Background(), currency.BTC, currency.USD)
	if err != nil {
		t.Fatalf("GetOrderBook() error = %v", err)
	}
	if len(book.Bids) != 1 || book.Bids[0].BaseAmount != 193300000 {
		t.Fatalf("bids = %+v, want the aliased entry", book.Bids)
	}
}

func TestGetOrderBookMissingPair(t *testing.T) {
	srv := depthServer(t, "XXBTZUSD", `{"error":[],"result":{"XETHZUSD":{"asks":[],"bids":[["1.0","1.0"]]}}}`)
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GetOrderBook(context.Background(), currency.BTC, currency.USD)
	if !errors.Is(err, core.ErrModule) {
		t.Fatalf("GetOrderBook() error = %v, want ErrModule", err)
	}
}

func TestGetOrderBookInversePair(t *testing.T) {
	srv := depthServer(t, "XXBTZEUR", `{"error":[],"result":{"XXBTZEUR":{
		"asks":[["500.00000","2.000",1420928626]],"bids":[]}}}`)
	defer srv.Close()

	c := newTestClient(srv)
	book, err := c.GetOrderBook(context.Background(), currency.EUR, currency.BTC)
	if err != nil {
		t.Fatalf("GetOrderBook() error = %v", err)
	}
	if book.BaseCurrency != currency.EUR || book.QuoteCurrency != currency.BTC {
		t.Fatalf("book pair = %s/%s, want EUR/BTC", book.BaseCurrency, book.QuoteCurrency)
	}
	// 500 EUR/BTC quoted as 2 BTC becomes 1000 EUR of depth at 1/500 BTC per EUR.
	want := core.OrderBookEntry{Price: 1.0 / 500.0, BaseAmount: 100000}
	if book.Asks[0] != want {
		t.Fatalf("ask = %+v, want %+v", book.Asks[0], want)
	}
}

func TestGetOrderBookUnsupportedPair(t *testing.T) {
	c := NewClientWithOptions(Options{BaseURL: "http://127.0.0.1:0"})
	_, err := c.GetOrderBook(context.Background(), currency.Code("WAT"), currency.USD)
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("GetOrderBook() error = %v, want ErrValidation", err)
	}
}

const tickerXBTEUR = `{"error":[],"result":{"XXBTZEUR":{
	"a":["508.00000","1","1.000"],
	"b":["506.20000","5","5.000"],
	"c":["507.99900","0.17420076"],
	"v":["575.26392304","4173.76106173"],
	"p":["506.05587","506.24916"],
	"t":[1557,4323],
	"l":["505.00000","501.11000"],
	"h":["509.90000","509.92000"],
	"o":"507.50000"}}}`

func TestGetTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0/public/Ticker" {
			http.NotFound(w, r)
			return
		}
		_ = r.ParseForm()
		if got := r.PostForm.Get("pair"); got != "XXBTZEUR" {
			t.Errorf("pair = %q, want XXBTZEUR", got)
		}
		_, _ = w.Write([]byte(tickerXBTEUR))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ticker, err := c.GetTicker(context.Background(), currency.BTC, currency.EUR)
	if err != nil {
		t.Fatalf("GetTicker() error = %v", err)
	}
	want := core.Ticker{
		BaseCurrency:  currency.BTC,
		QuoteCurrency: currency.EUR,
		Bid:           506.2,
		Ask:           508,
		LastPrice:     507.999,
		High24Hours:   509.92,
		Low24Hours:    501.11,
		Vwap24Hours:   506.24916,
		Volume24Hours: 417376106173,
	}
	if ticker != want {
		t.Fatalf("GetTicker() = %+v, want %+v", ticker, want)
	}
}

func TestGetTickerInversePair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("pair"); got != "XETHZEUR" {
			t.Errorf("pair = %q, want XETHZEUR", got)
		}
		_, _ = w.Write([]byte(`{"error":[],"result":{"XETHZEUR":{
			"a":["200.00000","1","1.000"],
			"b":["100.00000","1","1.000"],
			"c":["160.00000","0.1"],
			"v":["10.0","12.5"],
			"p":["140.0","150.0"],
			"t":[10,20],
			"l":["90.0","80.0"],
			"h":["240.0","250.0"],
			"o":"150.0"}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ticker, err := c.GetTicker(context.Background(), currency.EUR, currency.ETH)
	if err != nil {
		t.Fatalf("GetTicker() error = %v", err)
	}
	want := core.Ticker{
		BaseCurrency:  currency.EUR,
		QuoteCurrency: currency.ETH,
		Bid:           1.0 / 200.0,
		Ask:           1.0 / 100.0,
		LastPrice:     1.0 / 160.0,
		High24Hours:   1.0 / 80.0,
		Low24Hours:    1.0 / 250.0,
		Vwap24Hours:   1.0 / 150.0,
		// 12.5 is an ETH quantity on the wire, so the volume carries the
		// quote currency's 8 decimals.
		Volume24Hours: 1250000000,
	}
	if ticker != want {
		t.Fatalf("GetTicker() = %+v, want %+v", ticker, want)
	}
}

func TestGetTickerIncompletePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":[],"result":{"XXBTZEUR":{"a":["508.0"],"b":["506.2"],"c":["507.9"],"v":["1.0"],"p":["506.0"],"l":["505.0"],"h":["509.9"]}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.GetTicker(context.Background(), currency.BTC, currency.EUR)
	if !errors.Is(err, core.ErrBadBody) {
		t.Fatalf("GetTicker() error = %v, want ErrBadBody", err)
	}
}

func TestServerTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/0/public/Time" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"error":[],"result":{"unixtime":1616336594,"rfc1123":"Sun, 21 Mar 21 14:23:14 +0000"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	got, err := c.ServerTime(context.Background())
	if err != nil {
		t.Fatalf("ServerTime() error = %v", err)
	}
	want := time.Date(2021, 3, 21, 14, 23, 14, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ServerTime() = %v, want %v", got, want)
	}
}
