package scrape

import (
	"log"
	"strings"
	"time"
)

// dateFormats are tried in order; the first successful parse wins. Listing
// rows mix several renderings, and older entries carry a bare year.
var dateFormats = []string{
	"02-01-2006",
	"2006-01-02",
	"02/01/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006",
}

// ParseDate parses a listing-row date string. A bare year parses to
// January 1 of that year. The ok result is false when no format matches;
// callers treat that as a recoverable condition, not an error.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateFilter gates listing rows against an optional cutoff date.
type DateFilter struct {
	Cutoff *time.Time
}

// Admit reports whether a row with the given date string passes the
// filter. Without a cutoff everything passes. Unparseable dates pass too:
// the filter is inclusion-biased so an odd date rendering never silently
// drops a filing.
func (f DateFilter) Admit(raw string) bool {
	if f.Cutoff == nil {
		return true
	}
	t, ok := ParseDate(raw)
	if !ok {
		log.Printf("WARN: could not parse date %q; including row", raw)
		return true
	}
	return !t.Before(*f.Cutoff)
}
