package categorizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/store"
)

func TestDirectMappingStrategy_Categorize(t *testing.T) {
	s := NewDirectMappingStrategy(&store.MockCategoryStore{Payees: map[string]string{
		"Trader Joe's":       "Groceries",
		"ACME   WIDGETS  CO": "Shopping",
		"":                   "Ignored",
		"blank category":     "",
	}}, logging.NewMockLogger())

	tests := []struct {
		name        string
		description string
		expected    string
		found       bool
	}{
		{"exact", "Trader Joe's", "Groceries", true},
		{"case insensitive", "TRADER JOE'S", "Groceries", true},
		{"whitespace collapsed", " acme widgets co ", "Shopping", true},
		{"blank category dropped", "blank category", "", false},
		{"unknown payee", "TRADER JOE'S #552", "", false},
		{"empty", "   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, found, err := s.Categorize(context.Background(), tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, category)
		})
	}
	assert.Equal(t, "DirectMapping", s.Name())
}

func TestDirectMappingStrategy_UpdateMapping(t *testing.T) {
	s := NewDirectMappingStrategy(nil, nil)

	s.UpdateMapping("Blue Bottle  Oakland", "Restaurants")
	s.UpdateMapping("", "Restaurants")
	s.UpdateMapping("nobody", "")

	category, found, err := s.Categorize(context.Background(), "BLUE BOTTLE OAKLAND")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Restaurants", category)
	assert.Equal(t, map[string]string{"blue bottle oakland": "Restaurants"}, s.Mappings())
}

func TestDirectMappingStrategy_LoadError(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewDirectMappingStrategy(&store.MockCategoryStore{LoadPayeesError: errors.New("disk")}, logger)

	assert.Empty(t, s.Mappings())
	assert.True(t, logger.HasEntry("WARN", "Failed to load payee mappings"))
}
