package provider

import (
	"errors"
	"fmt"
	"strings"
)

// ErrExhausted is matched by every ExhaustionError.
var ErrExhausted = errors.New("no provider could serve the request")

// TransportError covers network, DNS and timeout failures, and upstream
// statuses that are neither success nor rate limiting.
type TransportError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RateLimitError is an explicit 429 or a provider-specific empty success.
type RateLimitError struct {
	Provider string
	Status   int
	Reason   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited (status %d): %s", e.Provider, e.Status, e.Reason)
}

// MalformedResponseError is a 2xx body missing required fields.
type MalformedResponseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Attempt records what happened to one provider during an orchestrated fetch.
type Attempt struct {
	Provider string
	Skipped  bool
	Err      error
}

// ExhaustionError means every provider in the chain was skipped or failed.
type ExhaustionError struct {
	Class    AssetClass
	Symbol   string
	Attempts []Attempt
}

func (e *ExhaustionError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		switch {
		case a.Skipped && a.Err != nil:
			parts = append(parts, a.Provider+": skipped: "+a.Err.Error())
		case a.Skipped:
			parts = append(parts, a.Provider+": no eligible key")
		case a.Err != nil:
			parts = append(parts, a.Err.Error())
		}
	}
	return fmt.Sprintf("%s %s: all providers exhausted [%s]", e.Class, e.Symbol, strings.Join(parts, "; "))
}

func (e *ExhaustionError) Is(target error) bool { return target == ErrExhausted }
