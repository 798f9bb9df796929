package extractor

import "regexp"

// StatementPattern is one entry of the ordered line pattern table. Every
// pattern captures (date, description, amount) in groups 1-3.
type StatementPattern struct {
	Number int
	Name   string
	Regexp *regexp.Regexp
}

// numericDate starts at a word boundary so the tail of an ISO date
// ("2025-09-21") is not read as "25-09-21".
const (
	numericDate = `\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`
	isoDate     = `\d{4}[/-]\d{1,2}[/-]\d{1,2}`
	monthDate   = `[A-Za-z]+\s+\d{1,2},?\s+\d{4}`

	// amountGroup keeps an optional sign or dollar prefix in the capture; only
	// the magnitude is used.
	amountGroup = `(-?\$?[\d,]+\.\d{2})`

	// lineEnd allows a trailing CR marker after an end-anchored amount.
	lineEnd = `(?:\s*CR)?\s*$`
)

// StatementPatterns is ordered most-specific first and evaluated
// first-match-wins: once a pattern matches a line, later patterns are not
// tried even if the match yields nothing usable.
//
//  1. transaction date + posting date, amount at end of line
//  2. two dates, amount after a wider gap, not end-anchored
//  3. one numeric date, amount at end of line
//  4. one numeric date, amount after a pipe
//  5. ISO date first
//  6. fully pipe-delimited row
//  7. one numeric date, amount after a wider gap
//  8. month-name date
//  9. month-name date, amount after a wider gap, not end-anchored
//
// Patterns 2 and 9 are not end-anchored and pick up rows with trailing
// text after the amount. Every line pattern 7 accepts is already taken by
// pattern 3, so 7 never wins; it stays so the numbering keeps matching
// the layouts it documents.
var StatementPatterns = []StatementPattern{
	{1, "two-dates", regexp.MustCompile(`(` + numericDate + `)\s+` + numericDate + `\s+(.+?)\s+` + amountGroup + lineEnd)},
	{2, "two-dates-loose", regexp.MustCompile(`(` + numericDate + `)\s+` + numericDate + `\s+(.+?)\s{2,}` + amountGroup)},
	{3, "single-date", regexp.MustCompile(`(` + numericDate + `)\s+(.+?)\s+` + amountGroup + lineEnd)},
	{4, "single-date-pipe", regexp.MustCompile(`(` + numericDate + `)\s+(.+?)\s*\|\s*` + amountGroup)},
	{5, "iso-date", regexp.MustCompile(`(` + isoDate + `)\s+(.+?)\s+` + amountGroup + lineEnd)},
	{6, "pipe-table", regexp.MustCompile(`(` + numericDate + `)\s*\|\s*(.+?)\s*\|\s*` + amountGroup)},
	{7, "single-date-loose", regexp.MustCompile(`(` + numericDate + `)\s+(.+?)\s{2,}` + amountGroup + lineEnd)},
	{8, "month-name", regexp.MustCompile(`(` + monthDate + `)\s+(.+?)\s+` + amountGroup + lineEnd)},
	{9, "month-name-loose", regexp.MustCompile(`(` + monthDate + `)\s+(.+?)\s{2,}` + amountGroup)},
}

// MatchStatementLine returns the first pattern matching line and its
// captures, or nil when none matches.
func MatchStatementLine(line string) (*StatementPattern, []string) {
	for i := range StatementPatterns {
		p := &StatementPatterns[i]
		if m := p.Regexp.FindStringSubmatch(line); m != nil {
			return p, m
		}
	}
	return nil, nil
}

// Column-stage shapes: a whole line that is only a date or only an amount.
var (
	bareDatePattern   = regexp.MustCompile(`^` + numericDate + `$`)
	bareAmountPattern = regexp.MustCompile(`^[\d,]+\.\d{2}$`)
)

// Statement summary lines.
var (
	aggregateAmountPattern = regexp.MustCompile(`([\d,]+\.\d{2})`)
	headerWordPattern      = regexp.MustCompile(`\b(?:TRANSACTION|DATE|DESCRIPTION|AMOUNT|REFERENCE|POST)\b`)
	columnHeaderPattern    = regexp.MustCompile(`\b(?:TRANSACTION|DATE|DESCRIPTION|AMOUNT)\b`)
)

// Single-receipt heuristics.
var (
	receiptDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
		regexp.MustCompile(`(` + numericDate + `)`),
		regexp.MustCompile(`(` + isoDate + `)`),
	}
	receiptTotalPattern   = regexp.MustCompile(`(?i)(?:TOTAL|AMOUNT|Grand\s*Total|Total\s*Due)[\s:$]*(\d+(?:[.,]\d{3})*[.,]\d{2})`)
	leadingDigitPattern   = regexp.MustCompile(`^\d+`)
	labelPattern          = regexp.MustCompile(`[A-Z]{2,3}\s*:`)
	receiptMerchantBanned = []string{"INVOICE", "RECEIPT", "TRANS", "TOTAL"}
)
