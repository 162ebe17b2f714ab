package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"kraken-exc/internal/alert"
	"kraken-exc/internal/config"
	"kraken-exc/internal/currency"
	"kraken-exc/internal/exchange/kraken"
)

type checkStatus string

const (
	statusPass checkStatus = "PASS"
	statusFail checkStatus = "FAIL"
)

type checkResult struct {
	Name       string      `json:"name"`
	Status     checkStatus `json:"status"`
	DurationMs int64       `json:"duration_ms"`
	Detail     string      `json:"detail,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type report struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Pair       string        `json:"pair"`
	Checks     []checkResult `json:"checks"`
}

type selectedChecks struct {
	serverTime   bool
	ticker       bool
	orderBook    bool
	stream       bool
	balance      bool
	tradeHistory bool
	transactions bool
}

func main() {
	var (
		configPath  string
		timeoutSec  int
		streamWait  int
		outJSONPath string
		checkFlag   string
		pairFlag    string
	)
	flag.StringVar(&configPath, "config", "config/config.yaml", "config yaml path")
	flag.IntVar(&timeoutSec, "timeout-sec", 60, "total timeout seconds")
	flag.IntVar(&streamWait, "stream-wait-sec", 10, "wait seconds for the ticker stream check")
	flag.StringVar(&outJSONPath, "out-json", "", "optional output report path")
	flag.StringVar(&checkFlag, "check", "public", "checks to run: public | private | all | comma list (server_time,ticker,order_book,stream,balance,trade_history,transactions)")
	flag.StringVar(&pairFlag, "pair", "BTC/USD", "currency pair for the market checks, BASE/QUOTE")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}
	checks, err := parseCheckFlag(checkFlag)
	if err != nil {
		fatal(err.Error())
	}
	base, quote, err := parsePairFlag(pairFlag)
	if err != nil {
		fatal(err.Error())
	}
	if (checks.balance || checks.tradeHistory || checks.transactions) && cfg.Exchange.APIKey == "" {
		fatal("private checks require api_key and api_secret in the config")
	}

	if timeoutSec < 10 {
		timeoutSec = 10
	}
	if streamWait < 3 {
		streamWait = 3
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	client := kraken.NewClient(cfg.Exchange)

	notifier := alert.NewTelegramNotifier(cfg.Observability.Telegram)
	manager := alert.NewManagerWithOptions(client.Name(), notifier, alert.ManagerOptions{
		DropReportInterval: time.Duration(cfg.Observability.Runtime.AlertDropReportSec) * time.Second,
	})
	if manager != nil {
		client.SetAlerter(manager)
		defer func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer closeCancel()
			_ = manager.Close(closeCtx)
		}()
	}

	r := report{
		StartedAt: time.Now().UTC(),
		Pair:      string(base) + "/" + string(quote),
	}

	run := func(name string, fn func() (string, error)) {
		start := time.Now()
		detail, err := fn()
		cr := checkResult{
			Name:       name,
			DurationMs: time.Since(start).Milliseconds(),
			Detail:     detail,
		}
		if err != nil {
			cr.Status = statusFail
			cr.Error = err.Error()
		} else {
			cr.Status = statusPass
		}
		r.Checks = append(r.Checks, cr)
		if cr.Status == statusPass {
			fmt.Printf("[PASS] %s (%dms)", name, cr.DurationMs)
			if cr.Detail != "" {
				fmt.Printf(" - %s", cr.Detail)
			}
			fmt.Println()
		} else {
			fmt.Printf("[FAIL] %s (%dms) - %s\n", name, cr.DurationMs, cr.Error)
		}
	}

	if checks.serverTime {
		run("server_time", func() (string, error) {
			serverTime, err := client.ServerTime(ctx)
			if err != nil {
				return "", err
			}
			skew := time.Since(serverTime).Round(time.Millisecond)
			return fmt.Sprintf("time=%s skew=%s", serverTime.Format(time.RFC3339), skew), nil
		})
	}

	if checks.ticker {
		run("ticker", func() (string, error) {
			ticker, err := client.GetTicker(ctx, base, quote)
			if err != nil {
				return "", err
			}
			if ticker.Bid <= 0 || ticker.Ask <= 0 {
				return "", fmt.Errorf("ticker has no live quotes: bid=%v ask=%v", ticker.Bid, ticker.Ask)
			}
			return fmt.Sprintf("bid=%v ask=%v last=%v vol24h=%d", ticker.Bid, ticker.Ask, ticker.LastPrice, ticker.Volume24Hours), nil
		})
	}

	if checks.orderBook {
		run("order_book", func() (string, error) {
			book, err := client.GetOrderBook(ctx, base, quote)
			if err != nil {
				return "", err
			}
			if len(book.Bids) == 0 || len(book.Asks) == 0 {
				return "", fmt.Errorf("order book is one-sided: bids=%d asks=%d", len(book.Bids), len(book.Asks))
			}
			return fmt.Sprintf("bids=%d asks=%d bestBid=%v bestAsk=%v", len(book.Bids), len(book.Asks), book.Bids[0].Price, book.Asks[0].Price), nil
		})
	}

	if checks.stream {
		run("ticker_stream", func() (string, error) {
			streamCtx, streamCancel := context.WithTimeout(ctx, time.Duration(streamWait)*time.Second)
			defer streamCancel()

			stream, err := client.NewTickerStream(streamCtx, base, quote, 5*time.Second)
			if err != nil {
				return "", err
			}
			defer stream.Close()

			updates, errs := stream.Updates(streamCtx)
			count := 0
			for {
				select {
				case <-streamCtx.Done():
					if errors.Is(streamCtx.Err(), context.DeadlineExceeded) {
						return fmt.Sprintf("no stream errors during %ds window updates=%d", streamWait, count), nil
					}
					return "", streamCtx.Err()
				case _, ok := <-updates:
					if !ok {
						return "", errors.New("update channel closed unexpectedly")
					}
					count++
				case err, ok := <-errs:
					if ok && err != nil {
						return "", err
					}
				}
			}
		})
	}

	if checks.balance {
		run("balance", func() (string, error) {
			balance, err := client.GetBalance(ctx)
			if err != nil {
				return "", err
			}
			parts := make([]string, 0, len(balance.Total))
			for code, total := range balance.Total {
				parts = append(parts, fmt.Sprintf("%s=%d/%d", code, balance.Available[code], total))
			}
			return "available/total " + strings.Join(parts, " "), nil
		})
	}

	if checks.tradeHistory {
		run("trade_history", func() (string, error) {
			to := time.Now()
			from := to.Add(-30 * 24 * time.Hour)
			trades, err := client.ListTradeHistoryForPeriod(ctx, from, to)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("trades=%d over 30d", len(trades)), nil
		})
	}

	if checks.transactions {
		run("transactions", func() (string, error) {
			transactions, err := client.ListTransactions(ctx, nil)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("ledger entries=%d", len(transactions)), nil
		})
	}

	r.FinishedAt = time.Now().UTC()
	printSummary(r)

	if outJSONPath != "" {
		if err := writeReport(outJSONPath, r); err != nil {
			fatal(err.Error())
		}
		fmt.Printf("report written: %s\n", outJSONPath)
	}

	for _, c := range r.Checks {
		if c.Status == statusFail {
			os.Exit(1)
		}
	}
}

func parseCheckFlag(raw string) (selectedChecks, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "", "public":
		return selectedChecks{serverTime: true, ticker: true, orderBook: true, stream: true}, nil
	case "private":
		return selectedChecks{balance: true, tradeHistory: true, transactions: true}, nil
	case "all":
		return selectedChecks{
			serverTime: true, ticker: true, orderBook: true, stream: true,
			balance: true, tradeHistory: true, transactions: true,
		}, nil
	}

	var out selectedChecks
	for _, p := range strings.Split(raw, ",") {
		name := strings.TrimSpace(p)
		switch name {
		case "":
			continue
		case "server_time", "time":
			out.serverTime = true
		case "ticker":
			out.ticker = true
		case "order_book", "depth":
			out.orderBook = true
		case "stream", "ticker_stream":
			out.stream = true
		case "balance":
			out.balance = true
		case "trade_history", "trades":
			out.tradeHistory = true
		case "transactions", "ledger":
			out.transactions = true
		default:
			return selectedChecks{}, fmt.Errorf("unknown check: %s", name)
		}
	}
	if out == (selectedChecks{}) {
		return selectedChecks{}, errors.New("no checks selected")
	}
	return out, nil
}

func parsePairFlag(raw string) (currency.Code, currency.Code, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("pair must be BASE/QUOTE, got %q", raw)
	}
	return currency.Code(strings.ToUpper(parts[0])), currency.Code(strings.ToUpper(parts[1])), nil
}

func printSummary(r report) {
	passed := 0
	for _, c := range r.Checks {
		if c.Status == statusPass {
			passed++
		}
	}
	fmt.Printf("summary: %d/%d checks passed in %s\n", passed, len(r.Checks), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
}

func writeReport(path string, r report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
