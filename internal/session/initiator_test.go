package session

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

func testIntent() models.SearchIntent {
	return models.SearchIntent{
		TripType:      models.TripRoundTrip,
		Origin:        "CGK",
		Destination:   "SIN",
		DepartureDate: "2026-09-14",
		ReturnDate:    "2026-09-20",
		Passengers:    models.PassengerCounts{Adults: 2, Children: 1},
		CabinClass:    "economy",
	}
}

func TestInitiate_FlattensQueryAndReturnsToken(t *testing.T) {
	var got map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"session_id": "sess-abc"}`))
	}))
	defer ts.Close()

	i := NewInitiator(ts.URL, time.Second, zerolog.Nop())
	sess, err := i.Initiate(context.Background(), testIntent())
	require.NoError(t, err)

	assert.Equal(t, "sess-abc", sess.Token)
	assert.Equal(t, testIntent(), sess.Intent)

	assert.Equal(t, "round_trip", got["trip_type"])
	assert.Equal(t, "CGK", got["origin"])
	assert.Equal(t, "2026-09-14", got["departure_date"])
	assert.Equal(t, "2026-09-20", got["return_date"])
	assert.Equal(t, float64(2), got["adults"])
	assert.Equal(t, float64(1), got["children"])
	assert.Equal(t, float64(0), got["infants"])
	assert.Equal(t, "economy", got["cabin_class"])
	assert.Equal(t, "published", got["fare_type"])
}

func TestInitiate_HTTPErrorIsCreationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "downstream down", http.StatusBadGateway)
	}))
	defer ts.Close()

	i := NewInitiator(ts.URL, time.Second, zerolog.Nop())
	_, err := i.Initiate(context.Background(), testIntent())

	var ce *CreationError
	require.ErrorAs(t, err, &ce)
}

func TestInitiate_EmptyTokenIsCreationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	i := NewInitiator(ts.URL, time.Second, zerolog.Nop())
	_, err := i.Initiate(context.Background(), testIntent())

	var ce *CreationError
	require.ErrorAs(t, err, &ce)
}

func TestInitiate_NetworkErrorWraps(t *testing.T) {
	i := NewInitiator("http://127.0.0.1:1", 100*time.Millisecond, zerolog.Nop())
	_, err := i.Initiate(context.Background(), testIntent())

	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.True(t, errors.Unwrap(err) != nil)
}
