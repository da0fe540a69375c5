package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mkurniadi/faregate/internal/models"
	"github.com/mkurniadi/faregate/internal/observability"
	"github.com/mkurniadi/faregate/pkg/currency"
)

const aerolinkName = "aerolink"

// maxAerolinkPages caps pagination so a misbehaving upstream cannot keep an
// adapter looping forever.
const maxAerolinkPages = 10

// Aerolink serves nested itinerary documents: legs containing segments,
// RFC3339 timestamps, and a per-traveler fare breakdown. Results come back
// paginated per session.
type Aerolink struct {
	client *resty.Client
	log    zerolog.Logger
}

func NewAerolink(baseURL string, timeout time.Duration, log zerolog.Logger) *Aerolink {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Aerolink{
		client: c,
		log:    log.With().Str("provider", aerolinkName).Logger(),
	}
}

func (p *Aerolink) Name() string {
	return aerolinkName
}

type aerolinkPage struct {
	SessionID string            `json:"session_id"`
	Offers    []json.RawMessage `json:"offers"`
	HasMore   bool              `json:"has_more"`
}

type aerolinkOffer struct {
	OfferID           string          `json:"offer_id"`
	ValidatingCarrier string          `json:"validating_carrier"`
	Itinerary         []aerolinkLeg   `json:"itinerary"`
	Pricing           aerolinkPricing `json:"pricing"`
}

type aerolinkLeg struct {
	Segments []aerolinkSegment `json:"segments"`
}

type aerolinkSegment struct {
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	DepartsAt      string         `json:"departs_at"`
	ArrivesAt      string         `json:"arrives_at"`
	Carrier        string         `json:"marketing_carrier"`
	Number         string         `json:"flight_number"`
	TechnicalStops []aerolinkStop `json:"technical_stops,omitempty"`
}

type aerolinkStop struct {
	Airport         string `json:"airport"`
	DurationMinutes int    `json:"duration_minutes"`
}

type aerolinkPricing struct {
	GrandTotal    string                 `json:"grand_total"`
	Currency      string                 `json:"currency"`
	Travelers     []aerolinkTravelerFare `json:"travelers,omitempty"`
	Refundable    bool                   `json:"refundable"`
	PenaltyAmount string                 `json:"penalty_amount,omitempty"`
}

type aerolinkTravelerFare struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

func (p *Aerolink) Fetch(ctx context.Context, sess models.SearchSession) ([]models.Offer, error) {
	var offers []models.Offer
	skipped := 0

	for page := 1; page <= maxAerolinkPages; page++ {
		resp, err := p.client.R().
			SetContext(ctx).
			SetBody(map[string]any{
				"session_id": sess.Token,
				"page":       page,
			}).
			Post("/v2/offers")
		if err != nil {
			return nil, Classify(aerolinkName, err)
		}
		if resp.IsError() {
			return nil, NewProviderError(aerolinkName, KindRejected,
				fmt.Errorf("status %d: %s", resp.StatusCode(), resp.String()))
		}

		var body aerolinkPage
		if err := json.Unmarshal(resp.Body(), &body); err != nil {
			return nil, NewProviderError(aerolinkName, KindMalformed, err)
		}

		for _, raw := range body.Offers {
			offer, reason, err := p.mapOffer(raw, sess)
			if err != nil {
				skipped++
				observability.SkippedRecords.WithLabelValues(aerolinkName, reason).Inc()
				p.log.Debug().Err(err).Str("reason", reason).Msg("skipping unparseable offer")
				continue
			}
			offers = append(offers, offer)
		}

		if !body.HasMore {
			break
		}
	}

	if skipped > 0 {
		p.log.Info().Int("skipped", skipped).Int("kept", len(offers)).Msg("partial batch")
	}
	return offers, nil
}

func (p *Aerolink) mapOffer(raw json.RawMessage, sess models.SearchSession) (models.Offer, string, error) {
	var src aerolinkOffer
	if err := json.Unmarshal(raw, &src); err != nil {
		return models.Offer{}, "unparseable", err
	}
	if len(src.Itinerary) == 0 {
		return models.Offer{}, "missing_legs", fmt.Errorf("offer %s has no itinerary", src.OfferID)
	}

	legs := make([]models.Leg, len(src.Itinerary))
	for i, l := range src.Itinerary {
		if len(l.Segments) == 0 {
			return models.Offer{}, "missing_segments", fmt.Errorf("offer %s leg %d has no segments", src.OfferID, i)
		}
		segments := make([]models.Segment, len(l.Segments))
		for j, s := range l.Segments {
			dep, err := time.Parse(time.RFC3339, s.DepartsAt)
			if err != nil {
				return models.Offer{}, "bad_time", err
			}
			arr, err := time.Parse(time.RFC3339, s.ArrivesAt)
			if err != nil {
				return models.Offer{}, "bad_time", err
			}
			stopovers := make([]models.Stopover, len(s.TechnicalStops))
			for k, st := range s.TechnicalStops {
				stopovers[k] = models.Stopover{
					Airport:         models.NormalizeAirport(st.Airport),
					DurationMinutes: st.DurationMinutes,
				}
			}
			segments[j] = models.Segment{
				DepartureAirport: models.NormalizeAirport(s.Origin),
				ArrivalAirport:   models.NormalizeAirport(s.Destination),
				DepartureTime:    dep,
				ArrivalTime:      arr,
				Carrier:          s.Carrier,
				FlightNumber:     s.Number,
				Stopovers:        stopovers,
			}
		}
		legs[i] = models.Leg{Segments: segments}
	}

	// The validating carrier overrides the first segment's marketing carrier
	// when present, so codeshares dedup against each other.
	if src.ValidatingCarrier != "" {
		legs[0].Segments[0].Carrier = src.ValidatingCarrier
	}

	total, err := strconv.ParseFloat(src.Pricing.GrandTotal, 64)
	if err != nil || total <= 0 || src.Pricing.Currency == "" {
		return models.Offer{}, "missing_fare", fmt.Errorf("offer %s has no usable fare", src.OfferID)
	}

	breakdown := make([]models.FareBreakdown, 0, len(src.Pricing.Travelers))
	for _, t := range src.Pricing.Travelers {
		price, err := strconv.ParseFloat(t.Total, 64)
		if err != nil {
			continue
		}
		breakdown = append(breakdown, models.FareBreakdown{
			PassengerType: t.Type,
			Quantity:      t.Count,
			Price:         price,
		})
	}

	penalty := 0.0
	if src.Pricing.PenaltyAmount != "" {
		penalty, _ = strconv.ParseFloat(src.Pricing.PenaltyAmount, 64)
	}

	return models.Offer{
		ID:       uuid.NewString(),
		Provider: aerolinkName,
		Legs:     legs,
		Fare: models.Fare{
			TotalPrice: total,
			Currency:   src.Pricing.Currency,
			Display:    currency.Format(total, src.Pricing.Currency),
			Breakdown:  breakdown,
			Refundable: src.Pricing.Refundable,
			PenaltyFee: penalty,
		},
		Raw: raw,
	}, "", nil
}
