// Package intent turns raw user input into a validated SearchIntent.
package intent

import (
	"time"

	"github.com/mkurniadi/faregate/internal/models"
)

// Build validates raw input and produces an immutable SearchIntent. It is a
// pure transformation: no defaults are written back into the input and no
// ambiguous value is silently corrected.
func Build(in models.RawSearchInput) (models.SearchIntent, error) {
	tripType, err := resolveTripType(in)
	if err != nil {
		return models.SearchIntent{}, err
	}

	pax, err := resolvePassengers(in)
	if err != nil {
		return models.SearchIntent{}, err
	}

	out := models.SearchIntent{
		TripType:   tripType,
		Passengers: pax,
		CabinClass: in.CabinClass,
	}

	if tripType == models.TripMultiCity {
		legs, err := buildLegs(in.Legs)
		if err != nil {
			return models.SearchIntent{}, err
		}
		out.Legs = legs
		out.Origin = legs[0].Origin
		out.Destination = legs[len(legs)-1].Destination
		out.DepartureDate = legs[0].Date
		return out, nil
	}

	origin := models.NormalizeAirport(in.Origin)
	destination := models.NormalizeAirport(in.Destination)
	if origin == "" {
		return models.SearchIntent{}, models.ErrMissingOrigin
	}
	if destination == "" {
		return models.SearchIntent{}, models.ErrMissingDestination
	}
	if origin == destination {
		return models.SearchIntent{}, models.ErrSameOriginDestination
	}

	depDate, err := requireDate(in.DepartureDate, models.ErrMissingDepartureDate, models.ErrBadDepartureDate)
	if err != nil {
		return models.SearchIntent{}, err
	}
	out.Origin = origin
	out.Destination = destination
	out.DepartureDate = in.DepartureDate

	if tripType == models.TripRoundTrip {
		retDate, err := requireDate(in.ReturnDate, models.ErrMissingReturnDate, models.ErrBadReturnDate)
		if err != nil {
			return models.SearchIntent{}, err
		}
		if retDate.Before(depDate) {
			return models.SearchIntent{}, models.ErrReturnBeforeDeparture
		}
		out.ReturnDate = in.ReturnDate
	}

	return out, nil
}

func resolveTripType(in models.RawSearchInput) (models.TripType, error) {
	switch models.TripType(in.TripType) {
	case models.TripOneWay, models.TripRoundTrip, models.TripMultiCity:
		return models.TripType(in.TripType), nil
	}
	if in.TripType == "" {
		// Unstated trip type is inferred from the presence of a return date.
		if in.ReturnDate != "" {
			return models.TripRoundTrip, nil
		}
		return models.TripOneWay, nil
	}
	return "", models.ErrUnknownTripType
}

func resolvePassengers(in models.RawSearchInput) (models.PassengerCounts, error) {
	if in.Adults < 0 || in.Children < 0 || in.Juniors < 0 || in.Infants < 0 {
		return models.PassengerCounts{}, models.ErrNegativePassengers
	}
	pax := models.PassengerCounts{
		Adults:   in.Adults,
		Children: in.Children,
		Juniors:  in.Juniors,
		Infants:  in.Infants,
	}
	if pax.Adults == 0 {
		pax.Adults = 1
	}
	return pax, nil
}

func buildLegs(raw []models.IntentLeg) ([]models.IntentLeg, error) {
	if len(raw) < 2 {
		return nil, models.ErrTooFewLegs
	}

	legs := make([]models.IntentLeg, len(raw))
	var prev time.Time
	for i, l := range raw {
		origin := models.NormalizeAirport(l.Origin)
		destination := models.NormalizeAirport(l.Destination)
		if origin == "" || destination == "" || l.Date == "" {
			return nil, models.ErrIncompleteLeg
		}
		if origin == destination {
			return nil, models.ErrSameOriginDestination
		}
		date, err := models.ParseDate(l.Date)
		if err != nil {
			return nil, models.ErrBadDepartureDate
		}
		// Out-of-order leg dates are an error, never auto-sorted.
		if i > 0 && date.Before(prev) {
			return nil, models.ErrLegsOutOfOrder
		}
		prev = date
		legs[i] = models.IntentLeg{Origin: origin, Destination: destination, Date: l.Date}
	}
	return legs, nil
}

func requireDate(s string, missing, malformed models.ValidationError) (time.Time, error) {
	if s == "" {
		return time.Time{}, missing
	}
	t, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, malformed
	}
	return t, nil
}
