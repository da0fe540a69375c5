package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Stopover struct {
	Airport         string `json:"airport"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

// Segment is a single physical flight between two airports.
type Segment struct {
	DepartureAirport string     `json:"departure_airport"`
	ArrivalAirport   string     `json:"arrival_airport"`
	DepartureTime    time.Time  `json:"departure_time"`
	ArrivalTime      time.Time  `json:"arrival_time"`
	Carrier          string     `json:"carrier"`
	FlightNumber     string     `json:"flight_number"`
	Stopovers        []Stopover `json:"stopovers,omitempty"`
}

// Leg is one directional portion of a trip (outbound, return, or one
// multi-city hop); it holds one or more segments in travel order.
type Leg struct {
	Segments []Segment `json:"segments"`
}

// StopCount counts connections between segments plus intermediate
// stopovers inside segments.
func (l Leg) StopCount() int {
	n := len(l.Segments) - 1
	if n < 0 {
		n = 0
	}
	for _, s := range l.Segments {
		n += len(s.Stopovers)
	}
	return n
}

type FareBreakdown struct {
	PassengerType string  `json:"passenger_type"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
}

type Fare struct {
	TotalPrice float64         `json:"total_price"`
	Currency   string          `json:"currency"`
	Display    string          `json:"display,omitempty"`
	Breakdown  []FareBreakdown `json:"breakdown,omitempty"`
	Refundable bool            `json:"refundable"`
	PenaltyFee float64         `json:"penalty_fee,omitempty"`
}

// Offer is the canonical normalized itinerary produced by a provider
// adapter. Offers are immutable once constructed; the raw provider payload
// is carried along opaquely for the detail and booking views.
type Offer struct {
	ID       string          `json:"id"`
	Provider string          `json:"provider"`
	Legs     []Leg           `json:"legs"`
	Fare     Fare            `json:"fare"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Carrier is the validating carrier used for dedup and airline filtering:
// the marketing carrier of the first segment.
func (o Offer) Carrier() string {
	if len(o.Legs) == 0 || len(o.Legs[0].Segments) == 0 {
		return ""
	}
	return o.Legs[0].Segments[0].Carrier
}

func (o Offer) firstSegment() *Segment {
	if len(o.Legs) == 0 || len(o.Legs[0].Segments) == 0 {
		return nil
	}
	return &o.Legs[0].Segments[0]
}

func (o Offer) lastSegment() *Segment {
	if len(o.Legs) == 0 {
		return nil
	}
	last := o.Legs[len(o.Legs)-1]
	if len(last.Segments) == 0 {
		return nil
	}
	return &last.Segments[len(last.Segments)-1]
}

// DepartureTime is the departure of the first segment of the first leg.
func (o Offer) DepartureTime() time.Time {
	if s := o.firstSegment(); s != nil {
		return s.DepartureTime
	}
	return time.Time{}
}

// Signature identifies "the same physical itinerary" across providers. Two
// offers with equal signatures are duplicates and only the cheaper survives
// aggregation.
func (o Offer) Signature() string {
	first := o.firstSegment()
	last := o.lastSegment()
	if first == nil || last == nil {
		return ""
	}

	stops := make([]string, len(o.Legs))
	for i, l := range o.Legs {
		stops[i] = strconv.Itoa(l.StopCount())
	}

	return strings.Join([]string{
		strings.ToUpper(o.Carrier()),
		strings.ToUpper(first.DepartureAirport),
		first.DepartureTime.UTC().Format(time.RFC3339),
		strings.ToUpper(last.ArrivalAirport),
		last.ArrivalTime.UTC().Format(time.RFC3339),
		strings.Join(stops, ","),
	}, "|")
}

// Valid reports whether the offer carries the minimum an adapter must
// produce: at least one leg with one segment, and a priced fare.
func (o Offer) Valid() bool {
	if o.firstSegment() == nil {
		return false
	}
	return o.Fare.TotalPrice > 0 && o.Fare.Currency != ""
}
