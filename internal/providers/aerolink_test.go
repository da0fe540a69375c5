package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkurniadi/faregate/internal/models"
)

func testSession() models.SearchSession {
	return models.SearchSession{
		Token: "sess-42",
		Intent: models.SearchIntent{
			TripType:      models.TripOneWay,
			Origin:        "CGK",
			Destination:   "SIN",
			DepartureDate: "2026-09-14",
			Passengers:    models.PassengerCounts{Adults: 2, Children: 1},
		},
	}
}

const aerolinkGoodOffer = `{
	"offer_id": "AL-1",
	"validating_carrier": "GA",
	"itinerary": [{
		"segments": [{
			"origin": "cgk",
			"destination": "sin",
			"departs_at": "2026-09-14T08:30:00+07:00",
			"arrives_at": "2026-09-14T11:15:00+08:00",
			"marketing_carrier": "SQ",
			"flight_number": "SQ-955",
			"technical_stops": [{"airport": "kul", "duration_minutes": 45}]
		}]
	}],
	"pricing": {
		"grand_total": "185.50",
		"currency": "USD",
		"travelers": [
			{"type": "adult", "count": 2, "total": "150.00"},
			{"type": "child", "count": 1, "total": "35.50"}
		],
		"refundable": true,
		"penalty_amount": "25.00"
	}
}`

func TestAerolinkFetch_MapsAndPaginates(t *testing.T) {
	var sessionIDs []string
	pages := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/offers", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sessionIDs = append(sessionIDs, body["session_id"].(string))

		pages++
		if pages == 1 {
			w.Write([]byte(`{"session_id": "sess-42", "offers": [` + aerolinkGoodOffer + `], "has_more": true}`))
			return
		}
		// second page carries one good and one unparseable offer
		w.Write([]byte(`{"session_id": "sess-42", "offers": [
			{"offer_id": "AL-BROKEN", "itinerary": [], "pricing": {"grand_total": "10", "currency": "USD"}},
			{"offer_id": "AL-2", "itinerary": [{"segments": [{
				"origin": "CGK", "destination": "SIN",
				"departs_at": "2026-09-14T19:00:00+07:00",
				"arrives_at": "2026-09-14T21:45:00+08:00",
				"marketing_carrier": "GA", "flight_number": "GA-832"
			}]}], "pricing": {"grand_total": "99.00", "currency": "USD"}}
		], "has_more": false}`))
	}))
	defer ts.Close()

	p := NewAerolink(ts.URL, time.Second, zerolog.Nop())
	offers, err := p.Fetch(context.Background(), testSession())
	require.NoError(t, err)
	require.Len(t, offers, 2, "broken record is skipped, not fatal")
	assert.Equal(t, 2, pages)
	assert.Equal(t, []string{"sess-42", "sess-42"}, sessionIDs)

	first := offers[0]
	assert.Equal(t, "aerolink", first.Provider)
	assert.NotEmpty(t, first.ID)
	require.Len(t, first.Legs, 1)
	require.Len(t, first.Legs[0].Segments, 1)

	seg := first.Legs[0].Segments[0]
	assert.Equal(t, "CGK", seg.DepartureAirport)
	assert.Equal(t, "SIN", seg.ArrivalAirport)
	assert.Equal(t, "GA", seg.Carrier, "validating carrier overrides marketing carrier")
	assert.Equal(t, "SQ-955", seg.FlightNumber)
	require.Len(t, seg.Stopovers, 1)
	assert.Equal(t, "KUL", seg.Stopovers[0].Airport)
	assert.Equal(t, 1, first.Legs[0].StopCount())

	assert.Equal(t, 185.50, first.Fare.TotalPrice)
	assert.Equal(t, "USD", first.Fare.Currency)
	assert.Equal(t, "USD 185.50", first.Fare.Display)
	assert.True(t, first.Fare.Refundable)
	assert.Equal(t, 25.0, first.Fare.PenaltyFee)
	require.Len(t, first.Fare.Breakdown, 2)
	assert.Equal(t, "adult", first.Fare.Breakdown[0].PassengerType)
	assert.Equal(t, 2, first.Fare.Breakdown[0].Quantity)

	// raw payload survives intact for the detail view
	assert.JSONEq(t, aerolinkGoodOffer, string(first.Raw))
}

func TestAerolinkFetch_MissingCurrencySkipped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"offers": [{
			"offer_id": "AL-NOCUR",
			"itinerary": [{"segments": [{
				"origin": "CGK", "destination": "SIN",
				"departs_at": "2026-09-14T08:30:00+07:00",
				"arrives_at": "2026-09-14T11:15:00+08:00",
				"marketing_carrier": "GA", "flight_number": "GA-832"
			}]}],
			"pricing": {"grand_total": "99.00", "currency": ""}
		}], "has_more": false}`))
	}))
	defer ts.Close()

	p := NewAerolink(ts.URL, time.Second, zerolog.Nop())
	offers, err := p.Fetch(context.Background(), testSession())
	require.NoError(t, err)
	assert.Empty(t, offers, "currency-less fares are skipped at the adapter, not merged")
}

func TestAerolinkFetch_RejectedOnHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusConflict)
	}))
	defer ts.Close()

	p := NewAerolink(ts.URL, time.Second, zerolog.Nop())
	_, err := p.Fetch(context.Background(), testSession())

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindRejected, pe.Kind)
	assert.Equal(t, "aerolink", pe.Provider)
}

func TestAerolinkFetch_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer ts.Close()

	p := NewAerolink(ts.URL, time.Second, zerolog.Nop())
	_, err := p.Fetch(context.Background(), testSession())

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindMalformed, pe.Kind)
}

func TestAerolinkFetch_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer ts.Close()

	p := NewAerolink(ts.URL, time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := p.Fetch(ctx, testSession())

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindTimeout, pe.Kind)
}

func TestClassify(t *testing.T) {
	pe := Classify("x", context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, pe.Kind)

	wrapped := NewProviderError("x", KindMalformed, errors.New("boom"))
	assert.Same(t, wrapped, Classify("x", wrapped))

	assert.Equal(t, KindRejected, Classify("x", errors.New("no")).Kind)
	assert.Equal(t, KindMalformed, Kind(wrapped))
	assert.Equal(t, KindRejected, Kind(errors.New("bare")))
}
