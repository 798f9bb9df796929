package models

// ExtractionMethod names the pipeline stage that produced a result.
type ExtractionMethod string

const (
	MethodAI     ExtractionMethod = "ai"
	MethodOCR    ExtractionMethod = "ocr"
	MethodColumn ExtractionMethod = "column"
)

// IsValid reports whether m is one of the known methods.
func (m ExtractionMethod) IsValid() bool {
	switch m {
	case MethodAI, MethodOCR, MethodColumn:
		return true
	}
	return false
}

// ExtractionResult is produced once per document and is not modified after
// it is returned.
type ExtractionResult struct {
	LineItems []ExtractedTransaction `json:"line_items"`
	Method    ExtractionMethod       `json:"extraction_method"`
}

// NewExtractionResult builds a result, or nil when items is empty so
// callers can treat "no result" uniformly.
func NewExtractionResult(method ExtractionMethod, items []ExtractedTransaction) *ExtractionResult {
	if len(items) == 0 {
		return nil
	}
	return &ExtractionResult{LineItems: items, Method: method}
}

// IsEmpty reports whether r carries no line items.
func (r *ExtractionResult) IsEmpty() bool {
	return r == nil || len(r.LineItems) == 0
}

// StatementInfo returns the aggregate block carried by the first item.
func (r *ExtractionResult) StatementInfo() *StatementInfo {
	if r.IsEmpty() {
		return nil
	}
	return r.LineItems[0].StatementInfo
}
