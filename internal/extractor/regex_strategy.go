package extractor

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fjacquet/stmt-extract/internal/dateutils"
	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// minStatementLineLength filters out page numbers and OCR debris.
const minStatementLineLength = 10

// RegexStrategy reads statement lines with the StatementPatterns table.
type RegexStrategy struct {
	logger logging.Logger
}

// NewRegexStrategy creates the statement line stage.
func NewRegexStrategy(logger logging.Logger) *RegexStrategy {
	return &RegexStrategy{logger: logging.OrDefault(logger)}
}

func (s *RegexStrategy) Name() string { return "regex" }
func (s *RegexStrategy) Step() string { return StepOCR }

func (s *RegexStrategy) Attempt(_ context.Context, doc models.Document) (*models.ExtractionResult, error) {
	items, info := s.parse(doc.Text)
	if len(items) == 0 {
		return nil, nil
	}

	if info.Total == nil {
		sum := decimal.Zero
		for _, it := range items {
			sum = sum.Add(it.Amount.Abs())
		}
		info.Total = &sum
	}
	items[0].StatementInfo = &info

	return models.NewExtractionResult(models.MethodOCR, items), nil
}

func (s *RegexStrategy) parse(text string) ([]models.ExtractedTransaction, models.StatementInfo) {
	var (
		items []models.ExtractedTransaction
		info  models.StatementInfo
	)

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		if isAggregateLine(upper) {
			s.recordAggregate(trimmed, upper, &info, lineNo)
			continue
		}
		if utf8.RuneCountInString(trimmed) < minStatementLineLength {
			continue
		}
		if headerWordPattern.MatchString(upper) {
			continue
		}

		pattern, m := MatchStatementLine(trimmed)
		if pattern == nil {
			s.logger.Debug("No pattern matched line",
				logging.Field{Key: logging.FieldLineNumber, Value: lineNo},
				logging.Field{Key: logging.FieldLine, Value: trimmed})
			continue
		}

		item, ok := s.buildItem(trimmed, m, pattern, lineNo)
		if ok {
			items = append(items, item)
		}
	}
	return items, info
}

func (s *RegexStrategy) buildItem(line string, m []string, p *StatementPattern, lineNo int) (models.ExtractedTransaction, bool) {
	dateStr, rawDesc, amountStr := m[1], m[2], m[3]
	log := s.logger.WithFields(
		logging.Field{Key: logging.FieldLineNumber, Value: lineNo},
		logging.Field{Key: logging.FieldPattern, Value: p.Number},
	)

	magnitude, err := models.Magnitude(amountStr)
	if err != nil {
		log.WithError(err).Debug("Dropping line with unreadable amount")
		return models.ExtractedTransaction{}, false
	}

	desc := CleanDescription(strings.Trim(rawDesc, " |"))
	if strings.TrimSpace(dateStr) == "" || desc == "" {
		log.Debug("Dropping line without date or description")
		return models.ExtractedTransaction{}, false
	}

	class := ClassifyLine(line, rawDesc)
	item := models.ExtractedTransaction{
		Date:        dateutils.ParseOptional(dateStr, dateutils.StatementLayouts),
		Description: desc,
		Amount:      ApplySign(magnitude, class),
	}
	if item.Date == nil {
		log.Debug("Keeping line with unparsed date", logging.Field{Key: "date_text", Value: dateStr})
	}

	log.Debug("Matched statement line",
		logging.Field{Key: "pattern_name", Value: p.Name},
		logging.Field{Key: "class", Value: class.String()})
	return item, true
}

// isAggregateLine reports whether an upper-cased line is a statement
// summary (totals or balances) rather than a transaction.
func isAggregateLine(upper string) bool {
	return strings.Contains(upper, "TOTAL") || strings.Contains(upper, "BALANCE")
}

// recordAggregate stores the first amount of a summary line. PREVIOUS
// wins over NEW/CURRENT, which wins over TOTAL; payment totals are ignored.
func (s *RegexStrategy) recordAggregate(line, upper string, info *models.StatementInfo, lineNo int) {
	m := aggregateAmountPattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	amount, err := models.Magnitude(m[1])
	if err != nil {
		return
	}

	var field string
	switch {
	case strings.Contains(upper, "PREVIOUS"):
		info.PreviousBalance = &amount
		field = "previous_balance"
	case strings.Contains(upper, "NEW") || strings.Contains(upper, "CURRENT"):
		info.NewBalance = &amount
		field = "new_balance"
	case strings.Contains(upper, "TOTAL") && !strings.Contains(upper, "PAYMENT"):
		info.Total = &amount
		field = "total"
	default:
		return
	}
	s.logger.Debug("Recorded statement aggregate",
		logging.Field{Key: logging.FieldLineNumber, Value: lineNo},
		logging.Field{Key: "field", Value: field})
}
