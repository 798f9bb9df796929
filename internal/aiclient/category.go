package aiclient

import (
	"fmt"
	"strings"

	"fjacquet/stmt-extract/internal/parsererror"
)

// BuildCategoryPrompt asks the model to pick one of categories for a
// payee. The reply format is line based: CATEGORY, CONFIDENCE, REASON.
func BuildCategoryPrompt(payee string, categories []string) string {
	var b strings.Builder
	b.WriteString("You are a financial categorization expert. Based on the merchant/payee name, suggest the most appropriate expense category.\n\n")
	fmt.Fprintf(&b, "Merchant/Payee: %s\n\n", payee)
	fmt.Fprintf(&b, "Available categories: %s\n\n", strings.Join(categories, ", "))
	b.WriteString("Choose the MOST SPECIFIC and RELEVANT category from the list above. Respond in this exact format:\n")
	b.WriteString("CATEGORY: [category name]\n")
	b.WriteString("CONFIDENCE: [high/medium/low]\n")
	b.WriteString("REASON: [brief explanation]\n\n")
	b.WriteString("Be strict - only use categories from the provided list.")
	return b.String()
}

// CategoryReply is a parsed categorization answer.
type CategoryReply struct {
	Category   string
	Confidence string
	Reason     string
}

// DecodeCategory reads the CATEGORY line of a reply and maps it,
// case-insensitively, onto one of categories. A missing line or a category
// outside the list is an *parsererror.AIResponseError.
func DecodeCategory(raw string, categories []string) (CategoryReply, error) {
	var reply CategoryReply
	var suggested string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Trim(strings.TrimSpace(line), "*")
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "CATEGORY:"):
			suggested = strings.Trim(strings.TrimSpace(line[len("CATEGORY:"):]), "[]*\"' ")
		case strings.HasPrefix(strings.ToUpper(line), "CONFIDENCE:"):
			reply.Confidence = strings.ToLower(strings.TrimSpace(line[len("CONFIDENCE:"):]))
		case strings.HasPrefix(strings.ToUpper(line), "REASON:"):
			reply.Reason = strings.TrimSpace(line[len("REASON:"):])
		}
	}

	if suggested == "" {
		return CategoryReply{}, &parsererror.AIResponseError{Reason: "no CATEGORY line", Snippet: snippet(raw)}
	}
	for _, c := range categories {
		if strings.EqualFold(c, suggested) {
			reply.Category = c
			return reply, nil
		}
	}
	return CategoryReply{}, &parsererror.AIResponseError{
		Reason:  fmt.Sprintf("category %q is not one of the known categories", suggested),
		Snippet: snippet(raw),
	}
}
