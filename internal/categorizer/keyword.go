// Package categorizer labels extracted line items. Strategies run in order:
//  1. learned payee to category mappings
//  2. keyword rules from the categories file, then built-in rules
//  3. an AI model asked to pick one of the known categories
package categorizer

import (
	"context"
	"strings"
	"sync"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

type rule struct {
	category string
	keyword  string
}

// builtinRules apply after the configured ones. Order matters: the first
// matching keyword wins.
var builtinRules = []rule{
	{models.CategoryPayments, "PAYMENT THANK YOU"},
	{models.CategoryPayments, "THANK YOU"},
	{models.CategoryPayments, "AUTOPAY"},
	{models.CategoryRestaurants, "STARBUCKS"},
	{models.CategoryRestaurants, "RESTAURANT"},
	{models.CategoryRestaurants, "CAFE"},
	{models.CategoryRestaurants, "PIZZA"},
	{models.CategoryRestaurants, "MCDONALD"},
	{models.CategoryGroceries, "WHOLE FOODS"},
	{models.CategoryGroceries, "TRADER JOE"},
	{models.CategoryGroceries, "SAFEWAY"},
	{models.CategoryGroceries, "KROGER"},
	{models.CategoryGroceries, "GROCERY"},
	{models.CategoryTransport, "SHELL"},
	{models.CategoryTransport, "CHEVRON"},
	{models.CategoryTransport, "UBER"},
	{models.CategoryTransport, "LYFT"},
	{models.CategoryTransport, "PARKING"},
	{models.CategoryShopping, "AMAZON"},
	{models.CategoryShopping, "AMZN"},
	{models.CategoryShopping, "TARGET"},
	{models.CategoryShopping, "BEST BUY"},
	{models.CategoryShopping, "WALMART"},
}

// KeywordCategorizer matches upper-cased descriptions against keyword
// rules from the category store, then the built-in rules. Results are
// memoized per description; it is safe for concurrent use.
type KeywordCategorizer struct {
	rules  []rule
	logger logging.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewKeywordCategorizer loads rules from store. A store error is logged and
// leaves only the built-in rules. A nil store is allowed.
func NewKeywordCategorizer(store CategoryStoreInterface, logger logging.Logger) *KeywordCategorizer {
	c := &KeywordCategorizer{
		logger: logging.OrDefault(logger),
		cache:  make(map[string]string),
	}

	if store != nil {
		categories, err := store.LoadCategories()
		if err != nil {
			c.logger.WithError(err).Warn("Failed to load categories, using built-in rules only")
		}
		for _, cat := range categories {
			for _, kw := range cat.Keywords {
				if kw = strings.ToUpper(strings.TrimSpace(kw)); kw != "" {
					c.rules = append(c.rules, rule{category: cat.Name, keyword: kw})
				}
			}
		}
	}
	c.rules = append(c.rules, builtinRules...)

	c.logger.Debug("Keyword categorizer ready",
		logging.Field{Key: logging.FieldCount, Value: len(c.rules)})
	return c
}

func (c *KeywordCategorizer) Name() string { return "Keyword" }

// Categorize implements CategorizationStrategy. It never fails.
func (c *KeywordCategorizer) Categorize(_ context.Context, description string) (string, bool, error) {
	category, ok := c.Match(description)
	return category, ok, nil
}

// CategoryNames lists the distinct categories the rules can produce, in
// rule order.
func (c *KeywordCategorizer) CategoryNames() []string {
	seen := make(map[string]bool, len(c.rules))
	var names []string
	for _, r := range c.rules {
		if !seen[r.category] {
			seen[r.category] = true
			names = append(names, r.category)
		}
	}
	return names
}

// Match returns the category of the first rule whose keyword appears in
// description.
func (c *KeywordCategorizer) Match(description string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(description))
	if key == "" {
		return "", false
	}

	c.mu.RLock()
	category, cached := c.cache[key]
	c.mu.RUnlock()
	if cached {
		return category, category != ""
	}

	for _, r := range c.rules {
		if strings.Contains(key, r.keyword) {
			category = r.category
			c.logger.Debug("Line item categorized",
				logging.Field{Key: logging.FieldCategory, Value: category},
				logging.Field{Key: "keyword", Value: r.keyword})
			break
		}
	}

	c.mu.Lock()
	c.cache[key] = category
	c.mu.Unlock()
	return category, category != ""
}
