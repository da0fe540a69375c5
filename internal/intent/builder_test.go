package intent

import (
	"errors"
	"testing"

	"github.com/mkurniadi/faregate/internal/models"
)

func TestBuild_OneWayDefaults(t *testing.T) {
	got, err := Build(models.RawSearchInput{
		Origin:        "cgk",
		Destination:   "SIN",
		DepartureDate: "2026-09-14",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.TripType != models.TripOneWay {
		t.Fatalf("trip type: %v", got.TripType)
	}
	if got.Origin != "CGK" || got.Destination != "SIN" {
		t.Fatalf("airports not normalized: %+v", got)
	}
	if got.Passengers.Adults != 1 {
		t.Fatalf("adults should default to 1, got %d", got.Passengers.Adults)
	}
	if got.Passengers.Children != 0 || got.Passengers.Juniors != 0 || got.Passengers.Infants != 0 {
		t.Fatalf("non-adult categories should default to 0: %+v", got.Passengers)
	}
	if got.CabinClass != "" {
		t.Fatalf("cabin class should default to any (empty): %q", got.CabinClass)
	}
}

func TestBuild_InferredRoundTrip(t *testing.T) {
	got, err := Build(models.RawSearchInput{
		Origin:        "CGK",
		Destination:   "SIN",
		DepartureDate: "2026-09-14",
		ReturnDate:    "2026-09-20",
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.TripType != models.TripRoundTrip {
		t.Fatalf("expected inferred round trip, got %v", got.TripType)
	}
	if got.ReturnDate != "2026-09-20" {
		t.Fatalf("return date lost: %+v", got)
	}
}

func TestBuild_ValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		in   models.RawSearchInput
		want models.ValidationError
	}{
		{
			name: "missing origin",
			in:   models.RawSearchInput{Destination: "SIN", DepartureDate: "2026-09-14"},
			want: models.ErrMissingOrigin,
		},
		{
			name: "missing destination",
			in:   models.RawSearchInput{Origin: "CGK", DepartureDate: "2026-09-14"},
			want: models.ErrMissingDestination,
		},
		{
			name: "same origin and destination",
			in:   models.RawSearchInput{Origin: "CGK", Destination: "cgk", DepartureDate: "2026-09-14"},
			want: models.ErrSameOriginDestination,
		},
		{
			name: "missing departure date",
			in:   models.RawSearchInput{Origin: "CGK", Destination: "SIN"},
			want: models.ErrMissingDepartureDate,
		},
		{
			name: "round trip without return date",
			in: models.RawSearchInput{
				TripType: "round_trip", Origin: "CGK", Destination: "SIN", DepartureDate: "2026-09-14",
			},
			want: models.ErrMissingReturnDate,
		},
		{
			name: "return before departure",
			in: models.RawSearchInput{
				TripType: "round_trip", Origin: "CGK", Destination: "SIN",
				DepartureDate: "2026-09-14", ReturnDate: "2026-09-10",
			},
			want: models.ErrReturnBeforeDeparture,
		},
		{
			name: "unknown trip type",
			in: models.RawSearchInput{
				TripType: "open_jaw", Origin: "CGK", Destination: "SIN", DepartureDate: "2026-09-14",
			},
			want: models.ErrUnknownTripType,
		},
		{
			name: "negative passengers",
			in: models.RawSearchInput{
				Origin: "CGK", Destination: "SIN", DepartureDate: "2026-09-14", Infants: -1,
			},
			want: models.ErrNegativePassengers,
		},
		{
			name: "multi-city single leg",
			in: models.RawSearchInput{
				TripType: "multi_city",
				Legs:     []models.IntentLeg{{Origin: "CGK", Destination: "SIN", Date: "2026-09-14"}},
			},
			want: models.ErrTooFewLegs,
		},
		{
			name: "multi-city incomplete leg",
			in: models.RawSearchInput{
				TripType: "multi_city",
				Legs: []models.IntentLeg{
					{Origin: "CGK", Destination: "SIN", Date: "2026-09-14"},
					{Origin: "SIN", Destination: "HKG"},
				},
			},
			want: models.ErrIncompleteLeg,
		},
		{
			name: "multi-city legs out of order",
			in: models.RawSearchInput{
				TripType: "multi_city",
				Legs: []models.IntentLeg{
					{Origin: "CGK", Destination: "SIN", Date: "2026-09-14"},
					{Origin: "SIN", Destination: "HKG", Date: "2026-09-10"},
				},
			},
			want: models.ErrLegsOutOfOrder,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBuild_MultiCity(t *testing.T) {
	got, err := Build(models.RawSearchInput{
		TripType: "multi_city",
		Adults:   2,
		Children: 1,
		Legs: []models.IntentLeg{
			{Origin: "cgk", Destination: "sin", Date: "2026-09-14"},
			{Origin: "sin", Destination: "hkg", Date: "2026-09-14"}, // same day is allowed
			{Origin: "hkg", Destination: "nrt", Date: "2026-09-18"},
		},
	})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got.Legs) != 3 {
		t.Fatalf("legs: %+v", got.Legs)
	}
	if got.Origin != "CGK" || got.Destination != "NRT" {
		t.Fatalf("intent endpoints should span the legs: %+v", got)
	}
	if got.DepartureDate != "2026-09-14" {
		t.Fatalf("departure date should come from the first leg: %+v", got)
	}
	if got.Passengers.Adults != 2 || got.Passengers.Children != 1 {
		t.Fatalf("passengers: %+v", got.Passengers)
	}
}

func TestBuild_IsPure(t *testing.T) {
	in := models.RawSearchInput{Origin: "CGK", Destination: "SIN", DepartureDate: "2026-09-14"}
	if _, err := Build(in); err != nil {
		t.Fatalf("err: %v", err)
	}
	if in.Adults != 0 {
		t.Fatalf("input must not be mutated: %+v", in)
	}
}
