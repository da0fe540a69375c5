package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkurniadi/faregate/internal/models"
)

func cachedOffer(carrier string, price float64) models.Offer {
	return models.Offer{
		ID:       carrier + "-1",
		Provider: "aerolink",
		Legs: []models.Leg{{Segments: []models.Segment{{
			DepartureAirport: "CGK",
			ArrivalAirport:   "SIN",
			DepartureTime:    time.Date(2026, 9, 14, 8, 30, 0, 0, time.UTC),
			ArrivalTime:      time.Date(2026, 9, 14, 11, 45, 0, 0, time.UTC),
			Carrier:          carrier,
			FlightNumber:     carrier + "-101",
		}}}},
		Fare: models.Fare{TotalPrice: price, Currency: "USD"},
	}
}

func newTestCache(t *testing.T, ttl time.Duration) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(RedisConfig{Addr: mr.Addr(), TTL: ttl})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	intent := models.SearchIntent{
		TripType: models.TripOneWay, Origin: "CGK", Destination: "SIN",
		DepartureDate: "2026-09-14", Passengers: models.PassengerCounts{Adults: 1},
	}

	_, found := c.Get(ctx, intent)
	assert.False(t, found)

	offers := []models.Offer{cachedOffer("GA", 100), cachedOffer("SQ", 150)}
	require.NoError(t, c.Set(ctx, intent, offers))

	got, found := c.Get(ctx, intent)
	require.True(t, found)
	require.Len(t, got, 2)
	assert.Equal(t, offers[0].Signature(), got[0].Signature())
	assert.Equal(t, 100.0, got[0].Fare.TotalPrice)
}

func TestRedisCache_KeyCoversWholeIntent(t *testing.T) {
	base := models.SearchIntent{
		TripType: models.TripOneWay, Origin: "CGK", Destination: "SIN",
		DepartureDate: "2026-09-14", Passengers: models.PassengerCounts{Adults: 1},
	}

	morePax := base
	morePax.Passengers.Children = 1

	otherCabin := base
	otherCabin.CabinClass = "business"

	assert.NotEqual(t, Key(base), Key(morePax))
	assert.NotEqual(t, Key(base), Key(otherCabin))
	assert.Equal(t, Key(base), Key(base))
}

func TestRedisCache_DistinctIntentsMiss(t *testing.T) {
	c := newTestCache(t, time.Minute)
	ctx := context.Background()

	a := models.SearchIntent{TripType: models.TripOneWay, Origin: "CGK", Destination: "SIN", DepartureDate: "2026-09-14"}
	b := a
	b.DepartureDate = "2026-09-15"

	require.NoError(t, c.Set(ctx, a, []models.Offer{cachedOffer("GA", 100)}))

	_, found := c.Get(ctx, b)
	assert.False(t, found)
}

func TestNoOpCache(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	intent := models.SearchIntent{Origin: "CGK", Destination: "SIN"}
	require.NoError(t, c.Set(ctx, intent, []models.Offer{cachedOffer("GA", 100)}))

	_, found := c.Get(ctx, intent)
	assert.False(t, found)
	assert.NoError(t, c.Close())
}
