package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a printed amount such as "1,234.56", "$45.23",
// "-450.00" or "45,23" into a decimal. The sign in the text is kept; callers
// that apply the ledger sign convention take Abs() first.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		neg = true
		clean = strings.Trim(clean, "()")
	}
	clean = strings.NewReplacer("$", "", "€", "", "£", "", " ", "", "'", "").Replace(clean)
	if strings.HasPrefix(clean, "-") {
		neg = !neg
		clean = clean[1:]
	}
	clean = normalizeSeparators(clean)

	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid amount string '%s': empty", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount string '%s': %w", s, err)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// normalizeSeparators turns both "1,234.56" and "1.234,56" into "1234.56".
// The separator followed by exactly two trailing digits is the decimal mark.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma > lastDot && len(s)-lastComma == 3 {
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}

// Magnitude parses s and drops the sign.
func Magnitude(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}
