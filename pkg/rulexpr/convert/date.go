package convert

import (
	"fmt"
	"strings"
	"time"

	"github.com/goodsign/monday"
)

// ISO layouts are unambiguous and always tried first.
var isoLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2.1.2006",
	"02-01-2006",
	"02/01/2006 15:04",
	"02.01.2006 15:04",
	"02/01/2006 15:04:05",
	"02.01.2006 15:04:05",
}

var monthFirstLayouts = []string{
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
}

// Layouts with month names go through monday so that "3 März 2024" works
// under a German locale.
var namedLayouts = []string{
	"2 January 2006",
	"2. January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
}

// ParseDate parses s as a calendar date (optionally with a time of day).
// Configured layouts are tried first, then ISO, then the numeric layouts in
// locale order, then layouts with month names.
func (c *Converter) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}

	for _, layouts := range c.numericLayoutSets() {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, c.location); err == nil {
				return t, nil
			}
		}
	}

	for _, layout := range namedLayouts {
		if t, err := monday.ParseInLocation(layout, s, c.location, c.locale); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date string: %s", s)
}

func (c *Converter) numericLayoutSets() [][]string {
	if c.decimal == ',' {
		return [][]string{c.layouts, isoLayouts, dayFirstLayouts, monthFirstLayouts}
	}
	return [][]string{c.layouts, isoLayouts, monthFirstLayouts, dayFirstLayouts}
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// Day truncates t to midnight of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
