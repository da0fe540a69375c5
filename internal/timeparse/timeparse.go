// Package timeparse handles the timestamp formats the upstream inventory
// systems actually send, which rarely agree with each other. Zoned
// timestamps carry their own offset; naive ones are local clock times of an
// airport and need the airport's zone to become an instant.
package timeparse

import (
	"fmt"
	"strings"
	"time"
)

var (
	wib  = time.FixedZone("WIB", 7*60*60)
	ict  = time.FixedZone("ICT", 7*60*60)
	sgt  = time.FixedZone("SGT", 8*60*60)
	myt  = time.FixedZone("MYT", 8*60*60)
	hkt  = time.FixedZone("HKT", 8*60*60)
	cst  = time.FixedZone("CST", 8*60*60)
	wita = time.FixedZone("WITA", 8*60*60)
	jst  = time.FixedZone("JST", 9*60*60)
	kst  = time.FixedZone("KST", 9*60*60)
	wit  = time.FixedZone("WIT", 9*60*60)
	ist  = time.FixedZone("IST", 5*60*60+30*60)
	gst  = time.FixedZone("GST", 4*60*60)
)

var airportZones = map[string]*time.Location{
	// Indonesia
	"CGK": wib, "HLP": wib, "SUB": wib, "KNO": wib, "PLM": wib,
	"PDG": wib, "PKU": wib, "BTH": wib,
	"DPS": wita, "UPG": wita, "BPN": wita,
	"DJJ": wit, "AMQ": wit,

	// Southeast / East Asia
	"SIN": sgt,
	"KUL": myt, "PEN": myt,
	"BKK": ict, "DMK": ict,
	"HKG": hkt,
	"TPE": cst, "PEK": cst, "PVG": cst, "CAN": cst,
	"NRT": jst, "HND": jst, "KIX": jst,
	"ICN": kst,

	// South Asia / Middle East
	"DEL": ist, "BOM": ist,
	"DXB": gst, "AUH": gst,
}

// Location returns the airport's time zone. Unknown airports fall back to
// UTC, which keeps parsing total at the cost of a possibly shifted instant.
func Location(airport string) *time.Location {
	if loc, ok := airportZones[strings.ToUpper(strings.TrimSpace(airport))]; ok {
		return loc
	}
	return time.UTC
}

var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseAt parses a provider timestamp into an instant. Layouts carrying a
// zone are taken as-is; naive layouts are read as local clock time at the
// given airport. Dedup compares instants, so both adapters must resolve the
// same physical flight to the same moment regardless of wire format.
func ParseAt(s, airport string) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	loc := Location(airport)
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a flight timestamp", s)
}

// Parse is ParseAt without an airport: naive layouts are read as UTC.
func Parse(s string) (time.Time, error) {
	return ParseAt(s, "")
}
