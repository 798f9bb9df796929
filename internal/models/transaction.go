// Package models provides the data structures shared by the extraction
// pipeline, the exporters and the HTTP layer.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of line item dates.
const DateLayout = "2006-01-02"

// ExtractedTransaction is one line item recovered from a document.
// Amount follows the ledger sign convention: charges are negative,
// credits, payments and refunds are positive.
type ExtractedTransaction struct {
	Date          *time.Time
	Description   string
	Amount        decimal.Decimal
	Category      string
	StatementInfo *StatementInfo
}

// StatementInfo carries aggregate figures scraped from statement summary
// lines. Only the first line item of a result carries it.
type StatementInfo struct {
	Total           *decimal.Decimal
	PreviousBalance *decimal.Decimal
	NewBalance      *decimal.Decimal
}

// IsEmpty reports whether no aggregate was found.
func (s *StatementInfo) IsEmpty() bool {
	return s == nil || (s.Total == nil && s.PreviousBalance == nil && s.NewBalance == nil)
}

// IsCredit reports whether the item moves money back to the account holder.
func (t ExtractedTransaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// FormattedDate returns the ISO date, or "" when the date is unknown.
func (t ExtractedTransaction) FormattedDate() string {
	if t.Date == nil {
		return ""
	}
	return t.Date.Format(DateLayout)
}

// Validate checks the invariants every emitted line item must hold.
func (t ExtractedTransaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("line item has an empty description")
	}
	return nil
}

type transactionJSON struct {
	Date          *string            `json:"date"`
	Description   string             `json:"description"`
	Amount        json.Number        `json:"amount"`
	Category      string             `json:"category,omitempty"`
	StatementInfo *statementInfoJSON `json:"_statement_info,omitempty"`
}

type statementInfoJSON struct {
	Total           *json.Number `json:"total"`
	PreviousBalance *json.Number `json:"previous_balance"`
	NewBalance      *json.Number `json:"new_balance"`
}

// MarshalJSON emits amounts as JSON numbers with two decimals and dates as
// YYYY-MM-DD or null.
func (t ExtractedTransaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Description: t.Description,
		Amount:      json.Number(t.Amount.StringFixed(2)),
		Category:    t.Category,
	}
	if t.Date != nil {
		d := t.Date.Format(DateLayout)
		out.Date = &d
	}
	if !t.StatementInfo.IsEmpty() {
		out.StatementInfo = &statementInfoJSON{
			Total:           decimalNumber(t.StatementInfo.Total),
			PreviousBalance: decimalNumber(t.StatementInfo.PreviousBalance),
			NewBalance:      decimalNumber(t.StatementInfo.NewBalance),
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (t *ExtractedTransaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(in.Amount.String())
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", in.Amount, err)
	}

	*t = ExtractedTransaction{
		Description: in.Description,
		Amount:      amount,
		Category:    in.Category,
	}
	if in.Date != nil && *in.Date != "" {
		d, err := time.Parse(DateLayout, *in.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", *in.Date, err)
		}
		t.Date = &d
	}
	if in.StatementInfo != nil {
		info := &StatementInfo{}
		if info.Total, err = numberDecimal(in.StatementInfo.Total); err != nil {
			return err
		}
		if info.PreviousBalance, err = numberDecimal(in.StatementInfo.PreviousBalance); err != nil {
			return err
		}
		if info.NewBalance, err = numberDecimal(in.StatementInfo.NewBalance); err != nil {
			return err
		}
		t.StatementInfo = info
	}
	return nil
}

func decimalNumber(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.StringFixed(2))
	return &n
}

func numberDecimal(n *json.Number) (*decimal.Decimal, error) {
	if n == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil, fmt.Errorf("invalid statement figure %q: %w", n.String(), err)
	}
	return &d, nil
}

// DatePtr is a convenience for building line items.
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// DecimalPtr returns a pointer to d.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
