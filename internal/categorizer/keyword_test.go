package categorizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/store"
)

func TestKeywordCategorizer_Categorize(t *testing.T) {
	categories := []models.CategoryConfig{
		{Name: "Coffee", Keywords: []string{"starbucks", "blue bottle"}},
		{Name: "Utilities", Keywords: []string{"PG&E", "  "}},
	}

	tests := []struct {
		name        string
		description string
		expected    string
		found       bool
	}{
		{"configured rule wins over built-in", "STARBUCKS #123", "Coffee", true},
		{"case insensitive", "Blue Bottle Oakland", "Coffee", true},
		{"special characters", "PG&E WEB ONLINE", "Utilities", true},
		{"built-in rule", "WHOLE FOODS MARKET", models.CategoryGroceries, true},
		{"built-in payment", "PAYMENT THANK YOU", models.CategoryPayments, true},
		{"no match", "ACME WIDGETS", "", false},
		{"blank", "   ", "", false},
	}

	c := NewKeywordCategorizer(&store.MockCategoryStore{Categories: categories}, logging.NewMockLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, ok := c.Match(tt.description)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, category)
		})
	}
}

func TestKeywordCategorizer_StoreError(t *testing.T) {
	logger := logging.NewMockLogger()
	c := NewKeywordCategorizer(&store.MockCategoryStore{LoadCategoriesError: errors.New("disk")}, logger)

	category, ok := c.Match("SHELL OIL 1234")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryTransport, category)
	assert.Len(t, logger.GetEntriesByLevel("WARN"), 1)
}

func TestKeywordCategorizer_NilStore(t *testing.T) {
	c := NewKeywordCategorizer(nil, nil)
	category, ok := c.Match("AMZN MKTP US")
	assert.True(t, ok)
	assert.Equal(t, models.CategoryShopping, category)
}

func TestKeywordCategorizer_CachesResults(t *testing.T) {
	c := NewKeywordCategorizer(nil, nil)

	_, ok := c.Match("ACME WIDGETS")
	assert.False(t, ok)
	_, ok = c.Match("acme widgets ")
	assert.False(t, ok)

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Len(t, c.cache, 1)
}

func TestKeywordCategorizer_Concurrent(t *testing.T) {
	c := NewKeywordCategorizer(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			category, ok := c.Match(fmt.Sprintf("UBER TRIP %d", i%3))
			assert.True(t, ok)
			assert.Equal(t, models.CategoryTransport, category)
		}(i)
	}
	wg.Wait()
}

func TestKeywordCategorizer_Strategy(t *testing.T) {
	c := NewKeywordCategorizer(&store.MockCategoryStore{Categories: []models.CategoryConfig{
		{Name: "Coffee", Keywords: []string{"blue bottle"}},
		{Name: models.CategoryShopping, Keywords: []string{"etsy"}},
	}}, nil)

	assert.Equal(t, "Keyword", c.Name())

	category, ok, err := c.Categorize(context.Background(), "BLUE BOTTLE SF")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Coffee", category)

	names := c.CategoryNames()
	assert.Equal(t, []string{"Coffee", models.CategoryShopping, models.CategoryPayments}, names[:3])
	assert.Contains(t, names, models.CategoryGroceries)
	assert.Len(t, names, 6, "duplicates are collapsed")
}
