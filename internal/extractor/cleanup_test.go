package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"STARBUCKS #123", "STARBUCKS #123"},
		{"PURCHASE AMAZON MKTPLACE", "AMAZON MKTPLACE"},
		{"payment thank you", "thank you"},
		{"DEBIT", "DEBIT"},
		{"STARBUCKS POST 12/15", "STARBUCKS"},
		{"STARBUCKS POST12/15/23", "STARBUCKS"},
		{"STARBUCKS POST 12 / 15", "STARBUCKS"},
		{"12/15 POST STARBUCKS", "STARBUCKS"},
		{"SHELL OIL 12/15", "SHELL OIL"},
		{"SHELL OIL 12/15/2023", "SHELL OIL"},
		{"POST SHELL OIL", "SHELL OIL"},
		{"POST DEBIT SHELL", "SHELL"},
		{"POSTMATES ORDER", "POSTMATES ORDER"},
		{"  WHOLE   FOODS \t MARKET ", "WHOLE FOODS MARKET"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanDescription(tt.input))
		})
	}
}

func TestCleanDescription_Idempotent(t *testing.T) {
	inputs := []string{
		"STARBUCKS #123",
		"PURCHASE PURCHASE AMAZON",
		"PAYMENT CREDIT REFUND 12/01",
		"POST DEBIT SHELL 12/15 POST",
		"12/15 POST 12/16 POST TARGET",
		"CREDIT POST 01/02/2024 DEBIT X",
		"TARGET 00012345 12/15",
		"  lower case post 1/2 purchase  ",
		"|| pipes || 3/4",
	}

	for _, in := range inputs {
		once := CleanDescription(in)
		assert.Equal(t, once, CleanDescription(once), "input %q", in)
	}
}
