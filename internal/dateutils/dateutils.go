// Package dateutils holds the date layout tables used to read dates printed
// on statements and receipts.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayoutISO is the output format of every parsed date.
const DateLayoutISO = "2006-01-02"

// StatementLayouts is tried in order against date tokens captured from
// statement lines; the first layout that parses wins. US month-first
// layouts come before day-first ones, so "03/04/25" is read as March 4.
//
// Non-padded layout elements accept one or two digits, and month names
// match case-insensitively.
var StatementLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2/1/06",
	"2/1/2006",
	"1-2-06",
	"1-2-2006",
	"2-1-2006",
	"2006-1-2",
	"2006/1/2",
	"2-Jan-2006",
	"2-Jan-06",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
}

// ColumnLayouts covers the bare numeric dates found in column-split OCR
// output.
var ColumnLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2/1/06",
	"2/1/2006",
	"1-2-06",
	"1-2-2006",
	"2-1-2006",
}

// ReceiptLayouts is used for the single date searched for on a receipt.
var ReceiptLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"1/2/2006",
	"1-2-2006",
	"1/2/06",
	"1-2-06",
	"2006-1-2",
	"2006/1/2",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ParseWithLayouts tries each layout in order and returns the first success
// together with the layout that matched.
func ParseWithLayouts(dateStr string, layouts []string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse date: empty string")
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseDate parses a statement date token using StatementLayouts.
func ParseDate(dateStr string) (time.Time, string, error) {
	return ParseWithLayouts(dateStr, StatementLayouts)
}

// ParseOptional returns nil instead of an error so callers can keep a line
// item whose date could not be read.
func ParseOptional(dateStr string, layouts []string) *time.Time {
	t, _, err := ParseWithLayouts(dateStr, layouts)
	if err != nil {
		return nil
	}
	return &t
}

// ParseISO parses exactly YYYY-MM-DD.
func ParseISO(dateStr string) (time.Time, error) {
	return time.Parse(DateLayoutISO, strings.TrimSpace(dateStr))
}

// ToISODate formats date as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CleanDateString trims and collapses internal whitespace.
func CleanDateString(dateStr string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
