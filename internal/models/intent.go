package models

import (
	"strings"
	"time"
)

type TripType string

const (
	TripOneWay    TripType = "one_way"
	TripRoundTrip TripType = "round_trip"
	TripMultiCity TripType = "multi_city"
)

type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Juniors  int `json:"juniors"`
	Infants  int `json:"infants"`
}

func (p PassengerCounts) Total() int {
	return p.Adults + p.Children + p.Juniors + p.Infants
}

type IntentLeg struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
}

// SearchIntent is the normalized form of one user search. It is built once by
// the intent builder and never mutated; a new search produces a new intent.
type SearchIntent struct {
	TripType      TripType        `json:"trip_type"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureDate string          `json:"departure_date"`
	ReturnDate    string          `json:"return_date,omitempty"`
	Legs          []IntentLeg     `json:"legs,omitempty"`
	Passengers    PassengerCounts `json:"passengers"`
	CabinClass    string          `json:"cabin_class,omitempty"`
}

// RawSearchInput is what arrives from the outside world before validation.
type RawSearchInput struct {
	TripType      string      `json:"trip_type"`
	Origin        string      `json:"origin"`
	Destination   string      `json:"destination"`
	DepartureDate string      `json:"departure_date"`
	ReturnDate    string      `json:"return_date,omitempty"`
	Legs          []IntentLeg `json:"legs,omitempty"`
	Adults        int         `json:"adults"`
	Children      int         `json:"children"`
	Juniors       int         `json:"juniors"`
	Infants       int         `json:"infants"`
	CabinClass    string      `json:"cabin_class,omitempty"`
}

type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingOrigin         ValidationError = "origin is required"
	ErrMissingDestination    ValidationError = "destination is required"
	ErrSameOriginDestination ValidationError = "origin and destination must differ"
	ErrMissingDepartureDate  ValidationError = "departure_date is required"
	ErrBadDepartureDate      ValidationError = "departure_date must be YYYY-MM-DD"
	ErrMissingReturnDate     ValidationError = "return_date is required for round trips"
	ErrBadReturnDate         ValidationError = "return_date must be YYYY-MM-DD"
	ErrReturnBeforeDeparture ValidationError = "return_date precedes departure_date"
	ErrUnknownTripType       ValidationError = "unknown trip_type"
	ErrTooFewLegs            ValidationError = "multi-city requires at least two legs"
	ErrIncompleteLeg         ValidationError = "every leg requires origin, destination and date"
	ErrLegsOutOfOrder        ValidationError = "leg dates must be chronologically non-decreasing"
	ErrNegativePassengers    ValidationError = "passenger counts must not be negative"
)

const dateLayout = "2006-01-02"

// ParseDate parses the YYYY-MM-DD wire format shared by intents and legs.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func NormalizeAirport(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
