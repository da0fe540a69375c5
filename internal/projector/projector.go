// Package projector derives ordered, filtered views from aggregation
// snapshots. Projection is pure: it never mutates the snapshot and the same
// inputs always yield the same ordered output.
package projector

import (
	"sort"
	"strings"

	"github.com/mkurniadi/faregate/internal/aggregator"
	"github.com/mkurniadi/faregate/internal/models"
)

// Project applies the filter state conjunctively and returns offers ordered
// by total price ascending (or the requested sort), ties broken by the
// snapshot's first-seen order.
func Project(snap aggregator.Snapshot, filters models.FilterState) []models.Offer {
	out := make([]models.Offer, 0, len(snap.Offers))
	airlines := normalizeSet(filters.Airlines)
	stops := normalizeSet(filters.StopBuckets)
	bands := normalizeSet(filters.DepartureBands)

	for _, o := range snap.Offers {
		if !matches(o, filters, airlines, stops, bands) {
			continue
		}
		out = append(out, o)
	}

	applySort(out, filters.SortBy)
	return out
}

// matches is the conjunction across all active dimensions; an empty
// selection for a dimension passes everything.
func matches(o models.Offer, filters models.FilterState, airlines, stops, bands map[string]struct{}) bool {
	if len(airlines) > 0 {
		if _, ok := airlines[strings.ToLower(o.Carrier())]; !ok {
			return false
		}
	}

	if len(stops) > 0 {
		// Bucket from the first leg only; later legs do not change it.
		bucket := models.StopBucket(firstLegStops(o))
		if _, ok := stops[bucket]; !ok {
			return false
		}
	}

	if filters.PriceMin != nil && o.Fare.TotalPrice < *filters.PriceMin {
		return false
	}
	if filters.PriceMax != nil && o.Fare.TotalPrice > *filters.PriceMax {
		return false
	}

	if len(bands) > 0 {
		band := models.DepartureBand(o.DepartureTime())
		if _, ok := bands[band]; !ok {
			return false
		}
	}

	return true
}

func firstLegStops(o models.Offer) int {
	if len(o.Legs) == 0 {
		return 0
	}
	return o.Legs[0].StopCount()
}

func applySort(offers []models.Offer, sortBy string) {
	switch strings.ToLower(sortBy) {
	case "departure":
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].DepartureTime().Before(offers[j].DepartureTime())
		})

	case "duration":
		sort.SliceStable(offers, func(i, j int) bool {
			return totalMinutes(offers[i]) < totalMinutes(offers[j])
		})

	default: // price ascending
		sort.SliceStable(offers, func(i, j int) bool {
			return offers[i].Fare.TotalPrice < offers[j].Fare.TotalPrice
		})
	}
}

func totalMinutes(o models.Offer) int {
	total := 0
	for _, l := range o.Legs {
		if len(l.Segments) == 0 {
			continue
		}
		first := l.Segments[0]
		last := l.Segments[len(l.Segments)-1]
		total += int(last.ArrivalTime.Sub(first.DepartureTime).Minutes())
	}
	return total
}

func normalizeSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		value := strings.ToLower(strings.TrimSpace(v))
		if value == "" {
			continue
		}
		set[value] = struct{}{}
	}
	return set
}
