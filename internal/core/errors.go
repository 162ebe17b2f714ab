package core

import (
	"errors"
	"strings"
)

// Error kinds. Exactly one of these is attached to every error the adapter
// produces; callers classify with errors.Is.
var (
	// ErrValidation marks caller-side input problems: unsupported currency,
	// zero trade amount, bad limit price, malformed dates. Returned before
	// any network call.
	ErrValidation = errors.New("validation error")
	// ErrExchangeServer marks transport and exchange-side failures.
	ErrExchangeServer = errors.New("exchange server error")
	// ErrModule marks the adapter's own consistency failures: missing pair
	// key in a response, unparseable pair string, missing credentials for a
	// private endpoint.
	ErrModule = errors.New("internal module error")
)

// Sub-kinds under ErrExchangeServer, so callers can tell the transport
// failure modes apart.
var (
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyBody     = errors.New("empty response body")
	ErrBadBody       = errors.New("unparseable response body")
	ErrEmptyResult   = errors.New("empty result from exchange")
)

// ExchangeError carries the verbatim messages from a non-empty exchange
// error array, preserved for caller inspection.
type ExchangeError struct {
	Messages []string
}

func (e ExchangeError) Error() string {
	return "exchange responded with an error: " + strings.Join(e.Messages, "; ")
}

// HasMessage reports whether the exchange returned msg verbatim.
func (e ExchangeError) HasMessage(msg string) bool {
	for _, m := range e.Messages {
		if m == msg {
			return true
		}
	}
	return false
}

// AsExchangeError unwraps an ExchangeError from err, if one is present.
func AsExchangeError(err error) (ExchangeError, bool) {
	if err == nil {
		return ExchangeError{}, false
	}
	var exErr ExchangeError
	if !errors.As(err, &exErr) {
		return ExchangeError{}, false
	}
	return exErr, true
}
