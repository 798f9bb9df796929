package models

import (
	"fjacquet/stmt-extract/internal/logging"
)

// CategorizationStats tracks the outcome of categorizing one result.
type CategorizationStats struct {
	Total         int // line items seen
	Preset        int // items that already carried a category
	Categorized   int // items given a category by the categorizer
	Uncategorized int // items left without a category
}

// LogSummary logs a summary of categorization statistics
func (cs CategorizationStats) LogSummary(logger logging.Logger, method ExtractionMethod) {
	if logger == nil {
		return
	}

	logger.Debug("Categorization summary",
		logging.Field{Key: logging.FieldMethod, Value: string(method)},
		logging.Field{Key: "total_transactions", Value: cs.Total},
		logging.Field{Key: "preset", Value: cs.Preset},
		logging.Field{Key: "categorized", Value: cs.Categorized},
		logging.Field{Key: "uncategorized", Value: cs.Uncategorized},
		logging.Field{Key: "success_rate", Value: cs.GetSuccessRate()},
	)
}

// GetSuccessRate returns the share of items with a category, as a percentage.
func (cs CategorizationStats) GetSuccessRate() float64 {
	if cs.Total == 0 {
		return 0.0
	}
	return float64(cs.Preset+cs.Categorized) / float64(cs.Total) * 100.0
}

// Record counts one item. preset means it arrived with a category; found
// means the categorizer supplied one.
func (cs *CategorizationStats) Record(preset, found bool) {
	cs.Total++
	switch {
	case preset:
		cs.Preset++
	case found:
		cs.Categorized++
	default:
		cs.Uncategorized++
	}
}
