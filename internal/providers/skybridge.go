package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkurniadi/faregate/internal/models"
	"github.com/mkurniadi/faregate/internal/observability"
	"github.com/mkurniadi/faregate/internal/timeparse"
	"github.com/mkurniadi/faregate/pkg/currency"
)

const skybridgeName = "skybridge"

// Skybridge serves flat records: every segment of every leg arrives in one
// array tagged with a leg number, timestamps come as "2006-01-02 15:04"
// airport-local clock strings, and the fare breakdown is flat
// per-passenger-type fields. Its fetch endpoint also wants the trip type
// repeated back alongside the session id. Local clock times are resolved to
// instants through the airport's zone so dedup lines up with providers that
// send zoned timestamps.
type Skybridge struct {
	client *resty.Client
	log    zerolog.Logger
}

func NewSkybridge(baseURL string, timeout time.Duration, log zerolog.Logger) *Skybridge {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Skybridge{
		client: c,
		log:    log.With().Str("provider", skybridgeName).Logger(),
	}
}

func (p *Skybridge) Name() string {
	return skybridgeName
}

type skybridgePayload struct {
	Results []json.RawMessage `json:"results"`
}

type skybridgeRecord struct {
	RefNo      string         `json:"ref_no"`
	Flights    []skybridgeHop `json:"flights"`
	TotalFare  float64        `json:"total_fare"`
	Currency   string         `json:"currency_code"`
	AdultFare  float64        `json:"adult_fare"`
	ChildFare  float64        `json:"child_fare"`
	JuniorFare float64        `json:"junior_fare"`
	InfantFare float64        `json:"infant_fare"`
	Refundable string         `json:"refundable"` // "Y" or "N"
	PenaltyFee float64        `json:"penalty_fee"`
}

type skybridgeHop struct {
	LegNo    int    `json:"leg_no"` // 1-based
	From     string `json:"from"`
	To       string `json:"to"`
	DepTime  string `json:"dep_time"`
	ArrTime  string `json:"arr_time"`
	Carrier  string `json:"carrier"`
	FlightNo string `json:"flight_no"`
	Stops    int    `json:"stops"` // technical stops, airports not itemized
}

func (p *Skybridge) Fetch(ctx context.Context, sess models.SearchSession) ([]models.Offer, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"session_id": sess.Token,
			"trip_type":  string(sess.Intent.TripType),
		}).
		Post("/api/fares")
	if err != nil {
		return nil, Classify(skybridgeName, err)
	}
	if resp.IsError() {
		return nil, NewProviderError(skybridgeName, KindRejected,
			fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
	}

	var body skybridgePayload
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, NewProviderError(skybridgeName, KindMalformed, err)
	}

	offers := make([]models.Offer, 0, len(body.Results))
	skipped := 0
	for _, raw := range body.Results {
		offer, reason, err := p.mapRecord(raw, sess)
		if err != nil {
			skipped++
			observability.SkippedRecords.WithLabelValues(skybridgeName, reason).Inc()
			p.log.Debug().Err(err).Str("reason", reason).Msg("skipping unparseable record")
			continue
		}
		offers = append(offers, offer)
	}

	if skipped > 0 {
		p.log.Info().Int("skipped", skipped).Int("kept", len(offers)).Msg("partial batch")
	}
	return offers, nil
}

func (p *Skybridge) mapRecord(raw json.RawMessage, sess models.SearchSession) (models.Offer, string, error) {
	var src skybridgeRecord
	if err := json.Unmarshal(raw, &src); err != nil {
		return models.Offer{}, "unparseable", err
	}
	if len(src.Flights) == 0 {
		return models.Offer{}, "missing_legs", fmt.Errorf("record %s has no flights", src.RefNo)
	}
	if src.TotalFare <= 0 || src.Currency == "" {
		return models.Offer{}, "missing_fare", fmt.Errorf("record %s has no usable fare", src.RefNo)
	}

	byLeg := map[int][]models.Segment{}
	legNos := []int{}
	for _, hop := range src.Flights {
		dep, err := timeparse.ParseAt(hop.DepTime, hop.From)
		if err != nil {
			return models.Offer{}, "bad_time", err
		}
		arr, err := timeparse.ParseAt(hop.ArrTime, hop.To)
		if err != nil {
			return models.Offer{}, "bad_time", err
		}
		if _, seen := byLeg[hop.LegNo]; !seen {
			legNos = append(legNos, hop.LegNo)
		}
		byLeg[hop.LegNo] = append(byLeg[hop.LegNo], models.Segment{
			DepartureAirport: models.NormalizeAirport(hop.From),
			ArrivalAirport:   models.NormalizeAirport(hop.To),
			DepartureTime:    dep,
			ArrivalTime:      arr,
			Carrier:          hop.Carrier,
			FlightNumber:     hop.FlightNo,
			Stopovers:        make([]models.Stopover, hop.Stops),
		})
	}
	sort.Ints(legNos)

	legs := make([]models.Leg, len(legNos))
	for i, n := range legNos {
		segments := byLeg[n]
		sort.Slice(segments, func(a, b int) bool {
			return segments[a].DepartureTime.Before(segments[b].DepartureTime)
		})
		legs[i] = models.Leg{Segments: segments}
	}

	pax := sess.Intent.Passengers
	breakdown := make([]models.FareBreakdown, 0, 4)
	for _, entry := range []struct {
		kind  string
		count int
		price float64
	}{
		{"adult", pax.Adults, src.AdultFare},
		{"child", pax.Children, src.ChildFare},
		{"junior", pax.Juniors, src.JuniorFare},
		{"infant", pax.Infants, src.InfantFare},
	} {
		if entry.count > 0 && entry.price > 0 {
			breakdown = append(breakdown, models.FareBreakdown{
				PassengerType: entry.kind,
				Quantity:      entry.count,
				Price:         entry.price,
			})
		}
	}

	return models.Offer{
		ID:       uuid.NewString(),
		Provider: skybridgeName,
		Legs:     legs,
		Fare: models.Fare{
			TotalPrice: src.TotalFare,
			Currency:   src.Currency,
			Display:    currency.Format(src.TotalFare, src.Currency),
			Breakdown:  breakdown,
			Refundable: src.Refundable == "Y",
			PenaltyFee: src.PenaltyFee,
		},
		Raw: raw,
	}, "", nil
}
