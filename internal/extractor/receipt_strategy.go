package extractor

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fjacquet/stmt-extract/internal/dateutils"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

const (
	merchantScanLines     = 15
	minMerchantLineLength = 11
)

// ReceiptStrategy is the last resort: it reads the document as a single
// retail receipt and emits one charge when a date, a total and a merchant
// line are all found.
type ReceiptStrategy struct {
	logger logging.Logger
}

// NewReceiptStrategy creates the single-receipt stage.
func NewReceiptStrategy(logger logging.Logger) *ReceiptStrategy {
	return &ReceiptStrategy{logger: logging.OrDefault(logger)}
}

func (s *ReceiptStrategy) Name() string { return "receipt" }
func (s *ReceiptStrategy) Step() string { return StepOCR }

func (s *ReceiptStrategy) Attempt(_ context.Context, doc models.Document) (*models.ExtractionResult, error) {
	text := doc.Text

	date, dateOK := findReceiptDate(text)
	total, totalOK := findReceiptTotal(text)
	merchant, merchantOK := findMerchant(text)

	s.logger.Debug("Single receipt heuristics",
		logging.Field{Key: "date_found", Value: dateOK},
		logging.Field{Key: "total_found", Value: totalOK},
		logging.Field{Key: "merchant_found", Value: merchantOK})

	if !dateOK || !totalOK || !merchantOK {
		return nil, nil
	}

	return models.NewExtractionResult(models.MethodOCR, []models.ExtractedTransaction{{
		Date:        &date,
		Description: merchant,
		Amount:      total.Neg(),
	}}), nil
}

// findReceiptDate takes the first match of each date pattern in turn and
// returns the first one that parses.
func findReceiptDate(text string) (time.Time, bool) {
	for _, re := range receiptDatePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if t, _, err := dateutils.ParseWithLayouts(m[1], dateutils.ReceiptLayouts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// findReceiptTotal returns the magnitude of the first keyword-anchored
// total. A zero total counts as not found.
func findReceiptTotal(text string) (decimal.Decimal, bool) {
	m := receiptTotalPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	amount, err := models.Magnitude(m[1])
	if err != nil || amount.IsZero() {
		return decimal.Zero, false
	}
	return amount, true
}

// findMerchant scans the top of the receipt for the first line that looks
// like a business name.
func findMerchant(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > merchantScanLines {
		lines = lines[:merchantScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if isMerchantLine(line) {
			return line, true
		}
	}
	return "", false
}

func isMerchantLine(line string) bool {
	if utf8.RuneCountInString(line) < minMerchantLineLength {
		return false
	}
	if leadingDigitPattern.MatchString(line) || labelPattern.MatchString(line) {
		return false
	}
	upper := strings.ToUpper(line)
	for _, banned := range receiptMerchantBanned {
		if strings.Contains(upper, banned) {
			return false
		}
	}
	// A line that is only a printed date is not a merchant.
	for _, re := range receiptDatePatterns {
		if m := re.FindString(line); m != "" && len(strings.TrimSpace(m)) == len(line) {
			return false
		}
	}
	return true
}
