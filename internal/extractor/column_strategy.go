package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"fjacquet/stmt-extract/internal/dateutils"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

const minColumnDescriptionLength = 6

// ColumnStrategy rebuilds transactions from OCR output where dates,
// descriptions and amounts come out as separate blocks of lines.
//
// Items are paired by index and the count is min(descriptions, amounts).
// When there are fewer dates than items, the first date is reused for the
// rest. That is a lossy approximation with no confidence signal; the
// number of reused dates is logged at warn level. Every amount is treated
// as a charge.
type ColumnStrategy struct {
	logger logging.Logger
}

// NewColumnStrategy creates the column reconstruction stage.
func NewColumnStrategy(logger logging.Logger) *ColumnStrategy {
	return &ColumnStrategy{logger: logging.OrDefault(logger)}
}

func (s *ColumnStrategy) Name() string { return "column" }
func (s *ColumnStrategy) Step() string { return StepOCR }

// columns holds the three line buckets.
type columns struct {
	dates        []string
	descriptions []string
	amounts      []string
}

func splitColumns(text string) columns {
	var c columns
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case bareDatePattern.MatchString(line):
			c.dates = append(c.dates, line)
		case bareAmountPattern.MatchString(line):
			c.amounts = append(c.amounts, line)
		case isColumnDescription(line):
			c.descriptions = append(c.descriptions, line)
		}
	}
	return c
}

func isColumnDescription(line string) bool {
	if utf8.RuneCountInString(line) < minColumnDescriptionLength {
		return false
	}
	upper := strings.ToUpper(line)
	return !isAggregateLine(upper) && !columnHeaderPattern.MatchString(upper)
}

func (s *ColumnStrategy) Attempt(_ context.Context, doc models.Document) (*models.ExtractionResult, error) {
	c := splitColumns(doc.Text)
	s.logger.Debug("Column buckets",
		logging.Field{Key: "dates", Value: len(c.dates)},
		logging.Field{Key: "descriptions", Value: len(c.descriptions)},
		logging.Field{Key: "amounts", Value: len(c.amounts)})

	if len(c.amounts) == 0 || len(c.descriptions) == 0 {
		return nil, nil
	}

	count := len(c.descriptions)
	if len(c.amounts) < count {
		count = len(c.amounts)
	}

	items := make([]models.ExtractedTransaction, 0, count)
	reused := 0
	for i := 0; i < count; i++ {
		var dateStr string
		switch {
		case i < len(c.dates):
			dateStr = c.dates[i]
		case len(c.dates) > 0:
			dateStr = c.dates[0]
			reused++
		}

		magnitude, err := models.Magnitude(c.amounts[i])
		if err != nil {
			s.logger.WithError(err).Warn("Unreadable amount in column layout",
				logging.Field{Key: logging.FieldLine, Value: c.amounts[i]})
			continue
		}

		item := models.ExtractedTransaction{
			Description: c.descriptions[i],
			Amount:      ApplySign(magnitude, Charge),
		}
		if dateStr != "" {
			item.Date = dateutils.ParseOptional(dateStr, dateutils.ColumnLayouts)
		}
		items = append(items, item)
	}

	if reused > 0 {
		s.logger.Warn("Reused first date for transactions without their own date",
			logging.Field{Key: logging.FieldCount, Value: reused},
			logging.Field{Key: "dates", Value: len(c.dates)},
			logging.Field{Key: "transactions", Value: count})
	}
	return models.NewExtractionResult(models.MethodColumn, items), nil
}
