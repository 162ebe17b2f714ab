package kraken

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"kraken-exc/internal/core"
)

// GetBalance returns total and available amounts per supported currency.
// Two calls are issued in sequence: total balances first, then the open
// orders whose reserves are subtracted to get the available side.
func (c *Client) GetBalance(ctx context.Context) (core.Balance, error) {
	balanceResult, err := c.Post(ctx, "Balance", nil)
	if err != nil {
		return core.Balance{}, err
	}
	var balances map[string]string
	if err := json.Unmarshal(balanceResult, &balances); err != nil {
		return core.Balance{}, serverError(core.ErrBadBody, err)
	}

	ordersResult, err := c.Post(ctx, "OpenOrders", nil)
	if err != nil {
		return core.Balance{}, err
	}
	var orders openOrdersResult
	if err := json.Unmarshal(ordersResult, &orders); err != nil {
		return core.Balance{}, serverError(core.ErrBadBody, err)
	}

	return normalizeBalance(balances, orders.Open, c.supported, func(id string, dropErr error) {
		c.logf("level=WARN event=open_order_dropped order=%q err=%q", id, dropErr.Error())
	})
}

// ListTransactions fetches all withdrawals and deposits, paginating the
// Ledgers endpoint until an empty page comes back. When latest is given,
// fetching starts at that transaction's second-truncated timestamp so the
// entry itself is included again. The two ledger types are fetched
// concurrently; each loop is internally sequential because the next offset
// depends on how much the previous pages returned. The merged result is
// sorted ascending by time.
func (c *Client) ListTransactions(ctx context.Context, latest *core.Transaction) ([]core.Transaction, error) {
	var start int64
	if latest != nil {
		start = latest.Time.Unix()
	}

	var withdrawals, deposits []core.Transaction
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		withdrawals, err = c.fetchLedger(groupCtx, core.Withdrawal, start)
		return err
	})
	group.Go(func() error {
		var err error
		deposits, err = c.fetchLedger(groupCtx, core.Deposit, start)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	transactions := make([]core.Transaction, 0, len(withdrawals)+len(deposits))
	transactions = append(transactions, withdrawals...)
	transactions = append(transactions, deposits...)
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Time.Before(transactions[j].Time)
	})
	return transactions, nil
}

func (c *Client) fetchLedger(ctx context.Context, txType core.TransactionType, start int64) ([]core.Transaction, error) {
	var transactions []core.Transaction
	offset := 0
	for {
		params := url.Values{}
		params.Set("type", string(txType))
		params.Set("ofs", strconv.Itoa(offset))
		if start > 0 {
			params.Set("start", strconv.FormatInt(start, 10))
		}
		result, err := c.Post(ctx, "Ledgers", params)
		if err != nil {
			return nil, err
		}
		var page ledgersResult
		if err := json.Unmarshal(result, &page); err != nil {
			return nil, serverError(core.ErrBadBody, err)
		}
		if len(page.Ledger) == 0 {
			return transactions, nil
		}
		for id, entry := range page.Ledger {
			tx, err := normalizeLedgerEntry(entry)
			if err != nil {
				c.logf("level=WARN event=ledger_entry_dropped entry=%q err=%q", id, err.Error())
				continue
			}
			transactions = append(transactions, tx)
		}
		offset += len(page.Ledger)
	}
}
