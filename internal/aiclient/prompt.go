package aiclient

import (
	"strconv"
	"strings"
)

const responseShape = `ALWAYS return this exact JSON format (no other format):
{
    "line_items": [
        {
            "date": "YYYY-MM-DD",
            "description": "merchant or description",
            "amount": -123.45
        }
    ]
}`

var textRules = []string{
	`ALWAYS return "line_items" array - even for single receipt (1-item array)`,
	"Extract EVERY transaction visible in the text, never summarize or merge transactions",
	"The text may have dates, descriptions, and amounts on separate lines - match them by position",
	"Expenses/charges = NEGATIVE amounts (e.g., -50.00)",
	"Credits/payments/refunds = POSITIVE amounts (e.g., 50.00)",
	"Date format: YYYY-MM-DD only (convert MM/DD/YY to YYYY-MM-DD)",
	"Amounts: numbers only, no currency symbols",
	"If you see multiple dates per transaction, use the first date",
	"Return ONLY the JSON format shown above, without markdown code fences",
}

var visionRules = []string{
	`ALWAYS return "line_items" array - even for single receipt (1-item array)`,
	"Extract EVERY transaction/line visible in the image, never summarize or merge transactions",
	"Expenses/charges = NEGATIVE amounts (e.g., -50.00)",
	"Credits/payments/refunds = POSITIVE amounts (e.g., 50.00)",
	"Date format: YYYY-MM-DD only",
	"Amounts: numbers only, no currency symbols",
	"If multiple dates per line, use the first date",
	"Return ONLY the JSON format shown above, without markdown code fences",
}

// BuildPrompt returns the structuring prompt for OCR or PDF text.
func BuildPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Parse this OCR-extracted text from a credit card statement or receipt into structured transaction data.\n\n")
	b.WriteString("OCR TEXT:\n")
	b.WriteString(text)
	b.WriteString("\n\n")
	b.WriteString(responseShape)
	b.WriteString("\n\n")
	writeRules(&b, textRules)
	return b.String()
}

// BuildVisionPrompt returns the prompt sent alongside an image.
func BuildVisionPrompt() string {
	var b strings.Builder
	b.WriteString("Extract ALL transactions from this image.\n\n")
	b.WriteString(responseShape)
	b.WriteString("\n\n")
	writeRules(&b, visionRules)
	return b.String()
}

func writeRules(b *strings.Builder, rules []string) {
	b.WriteString("CRITICAL RULES:\n")
	for i, r := range rules {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(r)
		b.WriteString("\n")
	}
}
