package extractor

import (
	"regexp"
	"strings"
)

var (
	typePrefix   = regexp.MustCompile(`(?i)^(?:PURCHASE|PAYMENT|DEBIT|CREDIT)\s+`)
	postThenDate = regexp.MustCompile(`(?i)\bPOST\s*\d{1,2}\s*[/-]\s*\d{1,2}(?:\s*[/-]\s*\d{2,4})?`)
	dateThenPost = regexp.MustCompile(`(?i)\d{1,2}\s*[/-]\s*\d{1,2}(?:\s*[/-]\s*\d{2,4})?\s+POST`)
	trailingDate = regexp.MustCompile(`\s+\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\s*$`)
	postToken    = regexp.MustCompile(`(?i)\bPOST\b`)
)

// CleanDescription strips statement noise from a captured description:
// a leading transaction-type word, "POST <date>" and "<date> POST"
// artifacts, a trailing bare date and any leftover POST token, then
// collapses whitespace.
//
// The transform is repeated until the text stops changing, so removing one
// artifact cannot expose another (e.g. "POST DEBIT X") and
// CleanDescription(CleanDescription(s)) == CleanDescription(s).
func CleanDescription(s string) string {
	for {
		next := cleanOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func cleanOnce(s string) string {
	s = strings.TrimSpace(s)
	s = typePrefix.ReplaceAllString(s, "")
	s = postThenDate.ReplaceAllString(s, "")
	s = dateThenPost.ReplaceAllString(s, "")
	s = trailingDate.ReplaceAllString(s, "")
	s = postToken.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
