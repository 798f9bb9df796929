package extractor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// LineClass is the sign decision for a statement line.
type LineClass int

const (
	// Charge lines become negative amounts.
	Charge LineClass = iota
	// Credit lines (payments, refunds, credits) become positive amounts.
	Credit
)

func (c LineClass) String() string {
	if c == Credit {
		return "credit"
	}
	return "charge"
}

// crMarker matches CR as its own token ("25.00 CR", "25.00CR") but not
// inside words such as "CRAFT" or "ACRE".
var crMarker = regexp.MustCompile(`(?:^|[^A-Z])CR(?:[^A-Z]|$)`)

// ClassifyLine decides the sign of a statement line. The rules, in order:
//
//   - a CR marker anywhere on the line means credit
//   - CREDIT anywhere on the line means credit
//   - PAYMENT in the captured description means credit
//   - anything else is a charge
//
// Matching is case-insensitive. The literal sign printed in the amount is
// ignored.
func ClassifyLine(line, description string) LineClass {
	upper := strings.ToUpper(line)
	switch {
	case crMarker.MatchString(upper):
		return Credit
	case strings.Contains(upper, "CREDIT"):
		return Credit
	case strings.Contains(strings.ToUpper(description), "PAYMENT"):
		return Credit
	}
	return Charge
}

// ApplySign returns |amount| for credits and -|amount| for charges.
func ApplySign(amount decimal.Decimal, class LineClass) decimal.Decimal {
	if class == Credit {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}
