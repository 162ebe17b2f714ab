package kraken

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"kraken-exc/internal/alert"
	"kraken-exc/internal/config"
	"kraken-exc/internal/core"
	"kraken-exc/internal/currency"
	"kraken-exc/internal/exchange"
)

var _ exchange.Exchange = (*Client)(nil)

const apiVersion = "0"

// Kraken decides GET vs signed POST by endpoint name. These two lists
// mirror the categories the exchange documents.
var publicEndpoints = map[string]bool{
	"Time": true, "Assets": true, "AssetPairs": true, "Ticker": true,
	"Depth": true, "Trades": true, "Spread": true, "OHLC": true,
}

var privateEndpoints = map[string]bool{
	"Balance": true, "TradeBalance": true, "OpenOrders": true,
	"ClosedOrders": true, "QueryOrders": true, "TradesHistory": true,
	"QueryTrades": true, "OpenPositions": true, "Ledgers": true,
	"QueryLedgers": true, "TradeVolume": true, "AddOrder": true,
	"CancelOrder": true, "DepositMethods": true, "DepositAddresses": true,
	"DepositStatus": true, "WithdrawInfo": true, "Withdraw": true,
	"WithdrawStatus": true, "WithdrawCancel": true,
}

// Client is a Kraken REST adapter. It is immutable after construction
// except for the alerter wiring, so concurrent calls need no coordination.
type Client struct {
	apiKey    string
	apiSecret string
	otp       string
	baseURL   string
	wsBaseURL string

	supported  map[currency.Code]bool
	httpClient *http.Client
	logger     *log.Logger

	mu         sync.Mutex
	alerter    alert.Alerter
	wsDegraded bool
}

type Options struct {
	APIKey              string
	APISecret           string
	OTP                 string
	BaseURL             string
	WSBaseURL           string
	Timeout             time.Duration
	SupportedCurrencies []currency.Code
	Logger              *log.Logger
}

func NewClient(cfg config.ExchangeConfig) *Client {
	supported := make([]currency.Code, 0, len(cfg.SupportedCurrencies))
	for _, c := range cfg.SupportedCurrencies {
		supported = append(supported, currency.Code(c))
	}
	return NewClientWithOptions(Options{
		APIKey:              cfg.APIKey,
		APISecret:           cfg.APISecret,
		OTP:                 cfg.OTP,
		BaseURL:             cfg.RestBaseURL,
		WSBaseURL:           cfg.WSBaseURL,
		Timeout:             time.Duration(cfg.HTTPTimeoutSec) * time.Second,
		SupportedCurrencies: supported,
	})
}

func NewClientWithOptions(opts Options) *Client {
	timeout := 120 * time.Second
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://api.kraken.com"
	}
	supported := make(map[currency.Code]bool, len(opts.SupportedCurrencies))
	for _, c := range opts.SupportedCurrencies {
		supported[currency.Code(strings.ToUpper(string(c)))] = true
	}
	if len(supported) == 0 {
		for _, c := range []currency.Code{currency.ETH, currency.BTC, currency.BSV, currency.EUR, currency.USD} {
			supported[c] = true
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		apiKey:     opts.APIKey,
		apiSecret:  opts.APISecret,
		otp:        opts.OTP,
		baseURL:    strings.TrimRight(baseURL, "/"),
		wsBaseURL:  strings.TrimRight(opts.WSBaseURL, "/"),
		supported:  supported,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Name() string { return "kraken" }

func (c *Client) SetAlerter(alerter alert.Alerter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerter = alerter
}

func (c *Client) alertImportant(event string, fields map[string]string) {
	c.mu.Lock()
	alerter := c.alerter
	c.mu.Unlock()
	if alerter == nil {
		return
	}
	alerter.Important(event, fields)
}

func (c *Client) markWSDegraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsDegraded {
		return false
	}
	c.wsDegraded = true
	return true
}

func (c *Client) clearWSDegraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.wsDegraded {
		return false
	}
	c.wsDegraded = false
	return true
}

func (c *Client) logf(format string, args ...interface{}) {
	c.logger.Printf(format, args...)
}

// resolvePair runs the pair resolver against this client's supported set.
func (c *Client) resolvePair(base, quote currency.Code) (currency.Pair, error) {
	pair, err := currency.Resolve(base, quote, c.supported)
	if err != nil {
		return currency.Pair{}, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	return pair, nil
}

// Get issues an unauthenticated GET to a public endpoint.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	urlStr := c.endpointURL(endpoint)
	if encoded := params.Encode(); encoded != "" {
		urlStr += "?" + encoded
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, serverError(core.ErrRequestFailed, err)
	}
	return c.send(req, endpoint)
}

// Post issues a POST, signing it when the endpoint is private. Public
// endpoints also accept POST, which is what the adapter uses for them.
func (c *Client) Post(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	path := c.endpointPath(endpoint)
	private := !publicEndpoints[endpoint]
	if private {
		if c.apiKey == "" || c.apiSecret == "" {
			return nil, fmt.Errorf("%w: key and secret are required for the %s endpoint", core.ErrModule, endpoint)
		}
		params.Set("nonce", strconv.FormatInt(time.Now().UnixMicro(), 10))
		if c.otp != "" {
			params.Set("otp", c.otp)
		}
	}

	// Encode once; the signature must cover the exact bytes sent.
	body := params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, serverError(core.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if private {
		signature, err := sign(path, params.Get("nonce"), body, c.apiSecret)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrModule, err)
		}
		req.Header.Set("API-Key", c.apiKey)
		req.Header.Set("API-Sign", signature)
	}
	return c.send(req, endpoint)
}

func (c *Client) endpointPath(endpoint string) string {
	category := "private"
	if publicEndpoints[endpoint] {
		category = "public"
	}
	return "/" + apiVersion + "/" + category + "/" + endpoint
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL + c.endpointPath(endpoint)
}

func (c *Client) send(req *http.Request, endpoint string) (json.RawMessage, error) {
	c.logf("level=DEBUG event=api_request endpoint=%q method=%s", endpoint, req.Method)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, serverError(core.ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serverError(core.ErrRequestFailed, err)
	}
	return parseEnvelope(endpoint, body)
}

// parseEnvelope unwraps Kraken's {error, result} wrapper into the result
// payload or a classified error.
func parseEnvelope(endpoint string, body []byte) (json.RawMessage, error) {
	if len(body) == 0 {
		return nil, serverError(core.ErrEmptyBody, fmt.Errorf("endpoint %s", endpoint))
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, serverError(core.ErrBadBody, err)
	}
	if len(env.Error) > 0 {
		return nil, errors.Join(core.ErrExchangeServer, core.ExchangeError{Messages: env.Error})
	}
	if emptyResult(env.Result) {
		return nil, serverError(core.ErrEmptyResult, fmt.Errorf("endpoint %s", endpoint))
	}
	return env.Result, nil
}

func emptyResult(result json.RawMessage) bool {
	switch strings.TrimSpace(string(result)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}

func serverError(sub error, cause error) error {
	if cause == nil {
		return errors.Join(core.ErrExchangeServer, sub)
	}
	return errors.Join(core.ErrExchangeServer, sub, cause)
}

// sign computes the API-Sign header: base64 of HMAC-SHA512 over
// path ++ SHA256(nonce ++ body), keyed with the base64-decoded secret.
func sign(path, nonce, body, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", fmt.Errorf("api secret is not valid base64: %w", err)
	}
	digest := sha256.Sum256([]byte(nonce + body))
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
