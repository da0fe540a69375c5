// Package session creates provider search sessions and tracks which one is
// the live target of merges for each searcher.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/mkurniadi/faregate/internal/models"
)

// CreationError is fatal to the whole search: without a session token no
// adapter can be invoked, so there are no partial results to fall back on.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string {
	return "session creation failed: " + e.Err.Error()
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

type Initiator struct {
	client *resty.Client
	log    zerolog.Logger
}

func NewInitiator(baseURL string, timeout time.Duration, log zerolog.Logger) *Initiator {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Initiator{client: c, log: log.With().Str("component", "session").Logger()}
}

type createResponse struct {
	SessionID string `json:"session_id"`
}

// Initiate submits the flattened query once and returns the opaque session
// token. No retries here; retry policy belongs to the caller.
func (i *Initiator) Initiate(ctx context.Context, intent models.SearchIntent) (models.SearchSession, error) {
	resp, err := i.client.R().
		SetContext(ctx).
		SetBody(flatten(intent)).
		Post("/sessions")
	if err != nil {
		return models.SearchSession{}, &CreationError{Err: err}
	}
	if resp.IsError() {
		return models.SearchSession{}, &CreationError{
			Err: fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()),
		}
	}

	var body createResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.SearchSession{}, &CreationError{Err: err}
	}
	if body.SessionID == "" {
		return models.SearchSession{}, &CreationError{Err: fmt.Errorf("empty session_id")}
	}

	i.log.Debug().Str("session", body.SessionID).Msg("session created")
	return models.SearchSession{Token: body.SessionID, Intent: intent}, nil
}

// flatten produces the query shape the session endpoint expects: one flat
// object, dates as YYYY-MM-DD, passenger counts by category.
func flatten(intent models.SearchIntent) map[string]any {
	body := map[string]any{
		"trip_type":      string(intent.TripType),
		"origin":         intent.Origin,
		"destination":    intent.Destination,
		"departure_date": intent.DepartureDate,
		"adults":         intent.Passengers.Adults,
		"children":       intent.Passengers.Children,
		"juniors":        intent.Passengers.Juniors,
		"infants":        intent.Passengers.Infants,
		"fare_type":      "published",
	}
	if intent.ReturnDate != "" {
		body["return_date"] = intent.ReturnDate
	}
	if intent.CabinClass != "" {
		body["cabin_class"] = intent.CabinClass
	}
	if len(intent.Legs) > 0 {
		body["legs"] = intent.Legs
	}
	return body
}
