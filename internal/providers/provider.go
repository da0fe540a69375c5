// Package providers holds the adapters for the upstream flight-inventory
// sources. Each adapter translates its provider's own response schema into
// the canonical Offer model; raw provider JSON never crosses this boundary
// except as the opaque payload carried inside an Offer.
package providers

import (
	"context"
	"errors"
	"net"

	"github.com/mkurniadi/faregate/internal/models"
)

// ErrorKind classifies adapter failures. Provider errors are never fatal to
// a search: the aggregation engine records them per provider and moves on.
type ErrorKind string

const (
	KindTimeout   ErrorKind = "timeout"
	KindRejected  ErrorKind = "rejected"
	KindMalformed ErrorKind = "malformed_response"
)

type Adapter interface {
	Name() string
	// Fetch returns every offer the provider has for the session, or a
	// *ProviderError. Individual unparseable records within a successful
	// response are skipped, not surfaced as an error.
	Fetch(ctx context.Context, sess models.SearchSession) ([]models.Offer, error)
}

type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider string, kind ErrorKind, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Err:      err,
	}
}

// Classify wraps an arbitrary fetch error into a *ProviderError. Context
// deadlines and network timeouts become KindTimeout; anything else the
// provider itself produced counts as a rejection.
func Classify(provider string, err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(provider, KindTimeout, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return NewProviderError(provider, KindTimeout, err)
	}
	return NewProviderError(provider, KindRejected, err)
}

// Kind extracts the classification from an adapter error.
func Kind(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindRejected
}
