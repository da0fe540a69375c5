package models

import "time"

// Stop-count buckets as shown in the results UI. Bucketing uses the first
// leg's stop count as the representative value for the whole offer.
const (
	StopsNonStop = "non_stop"
	StopsOne     = "one_stop"
	StopsTwoPlus = "two_plus_stops"
)

func StopBucket(stops int) string {
	switch {
	case stops <= 0:
		return StopsNonStop
	case stops == 1:
		return StopsOne
	default:
		return StopsTwoPlus
	}
}

// Departure time-of-day bands.
const (
	BandNight     = "night"     // 00:00-04:59
	BandMorning   = "morning"   // 05:00-11:59
	BandAfternoon = "afternoon" // 12:00-17:59
	BandEvening   = "evening"   // 18:00-23:59
)

func DepartureBand(t time.Time) string {
	switch h := t.Hour(); {
	case h < 5:
		return BandNight
	case h < 12:
		return BandMorning
	case h < 18:
		return BandAfternoon
	default:
		return BandEvening
	}
}

// FilterState is the user-controlled projection state. An empty selection
// for a dimension means no restriction on that dimension.
type FilterState struct {
	Airlines       []string `json:"airlines,omitempty"`
	StopBuckets    []string `json:"stop_buckets,omitempty"`
	PriceMin       *float64 `json:"price_min,omitempty"`
	PriceMax       *float64 `json:"price_max,omitempty"`
	DepartureBands []string `json:"departure_bands,omitempty"`
	SortBy         string   `json:"sort_by,omitempty"` // price | departure | duration
}

// PriceBounds are derived from the current aggregated set and drive the
// price slider limits in the UI.
type PriceBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}
