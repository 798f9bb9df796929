package aiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/stmt-extract/internal/dateutils"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

type lineItemsEnvelope struct {
	LineItems *[]rawLineItem `json:"line_items"`
}

type rawLineItem struct {
	Date        *string         `json:"date"`
	Description *string         `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    *string         `json:"category"`
}

// CleanModelJSON removes markdown code fences and any prose around the
// outermost JSON object.
func CleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

// DecodeLineItems turns a model reply into line items. The reply must be a
// JSON object with a non-empty "line_items" array; every item needs a
// non-empty string description and a numeric amount. Any schema violation
// fails the whole reply. A date that is not YYYY-MM-DD becomes nil instead.
func DecodeLineItems(raw string) ([]models.ExtractedTransaction, error) {
	clean := CleanModelJSON(raw)
	if clean == "" {
		return nil, &parsererror.AIResponseError{Reason: "empty response"}
	}

	dec := json.NewDecoder(strings.NewReader(clean))
	dec.UseNumber()
	var env lineItemsEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, &parsererror.AIResponseError{Reason: "malformed JSON", Snippet: snippet(raw), Err: err}
	}
	if env.LineItems == nil {
		return nil, &parsererror.AIResponseError{Reason: `missing "line_items"`, Snippet: snippet(raw)}
	}
	if len(*env.LineItems) == 0 {
		return nil, &parsererror.AIResponseError{Reason: "no line items"}
	}

	items := make([]models.ExtractedTransaction, 0, len(*env.LineItems))
	for i, ri := range *env.LineItems {
		item, err := ri.toTransaction()
		if err != nil {
			return nil, &parsererror.AIResponseError{
				Reason: fmt.Sprintf("line item %d", i),
				Err:    err,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (ri rawLineItem) toTransaction() (models.ExtractedTransaction, error) {
	if ri.Description == nil || strings.TrimSpace(*ri.Description) == "" {
		return models.ExtractedTransaction{}, fmt.Errorf("description is missing or empty")
	}

	amount, err := decodeAmount(ri.Amount)
	if err != nil {
		return models.ExtractedTransaction{}, &parsererror.ParseError{
			Parser: "ai", Field: "amount", Value: string(ri.Amount), Err: err,
		}
	}

	tx := models.ExtractedTransaction{
		Description: strings.TrimSpace(*ri.Description),
		Amount:      amount,
	}
	if ri.Category != nil {
		tx.Category = strings.TrimSpace(*ri.Category)
	}
	if ri.Date != nil {
		if d, err := dateutils.ParseISO(*ri.Date); err == nil {
			tx.Date = &d
		}
	}
	return tx, nil
}

// decodeAmount accepts a JSON number or a string holding one. null,
// booleans, objects and non-numeric strings are rejected.
func decodeAmount(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return decimal.Zero, fmt.Errorf("amount is missing")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, err
		}
		return models.ParseAmount(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return decimal.NewFromString(string(trimmed))
	}
	return decimal.Zero, fmt.Errorf("amount must be a number")
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
