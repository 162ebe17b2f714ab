package kraken

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
)

// TickerStream is a live subscription to the public v2 ticker channel for
// one pair.
type TickerStream struct {
	client    *Client
	conn      *websocket.Conn
	base      currency.Code
	quote     currency.Code
	symbol    string
	keepalive time.Duration
}

type wsSubscribeRequest struct {
	Method string            `json:"method"`
	Params wsSubscribeParams `json:"params"`
}

type wsSubscribeParams struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

type wsAck struct {
	Method  string `json:"method"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type wsTickerMessage struct {
	Channel string         `json:"channel"`
	Type    string         `json:"type"`
	Data    []wsTickerData `json:"data"`
}

type wsTickerData struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Last   float64 `json:"last"`
}

// NewTickerStream dials the websocket endpoint and subscribes to ticker
// updates for base/quote. keepalive controls the ping interval; zero
// disables pings.
func (c *Client) NewTickerStream(ctx context.Context, base, quote currency.Code, keepalive time.Duration) (*TickerStream, error) {
	if c.wsBaseURL == "" {
		return nil, fmt.Errorf("%w: ws base url required", core.ErrModule)
	}
	pair, err := c.resolvePair(base, quote)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.wsBaseURL, nil)
	if err != nil {
		return nil, serverError(core.ErrRequestFailed, err)
	}
	// The v2 stream names pairs in slash form with the normalized codes.
	symbol := string(pair.Base) + "/" + string(pair.Quote)
	if pair.Inverse {
		symbol = string(pair.Quote) + "/" + string(pair.Base)
	}
	if err := subscribeTicker(ctx, conn, symbol); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &TickerStream{
		client:    c,
		conn:      conn,
		base:      base,
		quote:     quote,
		symbol:    symbol,
		keepalive: keepalive,
	}, nil
}

func subscribeTicker(ctx context.Context, conn *websocket.Conn, symbol string) error {
	req := wsSubscribeRequest{
		Method: "subscribe",
		Params: wsSubscribeParams{Channel: "ticker", Symbol: []string{symbol}},
	}
	if err := conn.WriteJSON(req); err != nil {
		return serverError(core.ErrRequestFailed, err)
	}

	deadline := time.Now().Add(10 * time.Second)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetReadDeadline(deadline)
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return serverError(core.ErrRequestFailed, err)
		}
		var ack wsAck
		if err := json.Unmarshal(data, &ack); err != nil {
			continue
		}
		if ack.Method != "subscribe" {
			continue
		}
		if !ack.Success {
			return errors.Join(core.ErrExchangeServer, core.ExchangeError{Messages: []string{ack.Error}})
		}
		return nil
	}
}

// Updates starts the read loop. Ticker updates arrive on the first channel;
// read and keepalive failures are reported on the buffered error channel
// and close the update channel. The first read failure also raises a
// one-shot degradation alert; a later successful stream clears it.
func (s *TickerStream) Updates(ctx context.Context) (<-chan core.TickerUpdate, <-chan error) {
	updates := make(chan core.TickerUpdate)
	errCh := make(chan error, 4)
	done := make(chan struct{})

	reportErr := func(err error) {
		if err == nil {
			return
		}
		select {
		case errCh <- err:
		default:
		}
	}

	readTimeout := 45 * time.Second
	if s.keepalive > 0 {
		readTimeout = s.keepalive * 3
		if readTimeout < 30*time.Second {
			readTimeout = 30 * time.Second
		}
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go func() {
		defer close(done)
		defer close(updates)
		defer s.conn.Close()

		for {
			_ = s.conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, data, err := s.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					s.degraded(err)
				}
				reportErr(err)
				return
			}
			if len(data) == 0 {
				continue
			}
			var msg wsTickerMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Channel != "ticker" {
				continue
			}
			for _, tick := range msg.Data {
				if tick.Symbol != s.symbol {
					continue
				}
				update := core.TickerUpdate{
					BaseCurrency:  s.base,
					QuoteCurrency: s.quote,
					Bid:           tick.Bid,
					Ask:           tick.Ask,
					LastPrice:     tick.Last,
					Time:          time.Now().UTC(),
				}
				select {
				case updates <- update:
				case <-ctx.Done():
					return
				}
			}
			s.recovered()
		}
	}()

	if s.keepalive > 0 {
		go func() {
			ticker := time.NewTicker(s.keepalive)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
						reportErr(err)
						_ = s.conn.Close()
						return
					}
				case <-done:
					return
				case <-ctx.Done():
					_ = s.conn.Close()
					return
				}
			}
		}()
	}

	return updates, errCh
}

func (s *TickerStream) Close() error {
	return s.conn.Close()
}

func (s *TickerStream) degraded(cause error) {
	if !s.client.markWSDegraded() {
		return
	}
	s.client.logf("level=WARN event=ticker_stream_degraded symbol=%q err=%q", s.symbol, cause.Error())
	s.client.alertImportant("ticker_stream_degraded", map[string]string{
		"symbol": s.symbol,
		"err":    cause.Error(),
	})
}

func (s *TickerStream) recovered() {
	if !s.client.clearWSDegraded() {
		return
	}
	s.client.logf("level=INFO event=ticker_stream_recovered symbol=%q", s.symbol)
	s.client.alertImportant("ticker_stream_recovered", map[string]string{
		"symbol": s.symbol,
	})
}
