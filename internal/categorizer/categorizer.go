package categorizer

import (
	"context"
	"sync"
	"time"

	"fjacquet/stmt-extract/internal/aiclient"
	"fjacquet/stmt-extract/internal/logging"
)

// Categorizer runs its strategies in order and returns the first category
// found. A category found by the AI strategy is learned as a payee mapping
// and saved through the store, so each payee reaches the model once.
// It is safe for concurrent use.
type Categorizer struct {
	direct     *DirectMappingStrategy
	keywords   *KeywordCategorizer
	strategies []CategorizationStrategy
	store      CategoryStoreInterface
	logger     logging.Logger

	saveMu sync.Mutex
}

// NewCategorizer builds the chain: payee mappings, keyword rules, then the
// AI model over the keyword categories. A nil client leaves the AI
// strategy out.
func NewCategorizer(store CategoryStoreInterface, client aiclient.Client, timeout time.Duration, logger logging.Logger) *Categorizer {
	logger = logging.OrDefault(logger)

	c := &Categorizer{
		direct:   NewDirectMappingStrategy(store, logger),
		keywords: NewKeywordCategorizer(store, logger),
		store:    store,
		logger:   logger,
	}
	c.strategies = []CategorizationStrategy{c.direct, c.keywords}
	if client != nil {
		c.strategies = append(c.strategies, NewAIStrategy(client, c.keywords.CategoryNames(), timeout, logger))
	}
	return c
}

// Categorize returns the first category any strategy finds. Strategy errors
// are logged and skipped.
func (c *Categorizer) Categorize(ctx context.Context, description string) (string, bool) {
	for _, s := range c.strategies {
		category, found, err := s.Categorize(ctx, description)
		if err != nil {
			c.logger.WithError(err).Warn("Categorization strategy failed",
				logging.Field{Key: "strategy", Value: s.Name()},
				logging.Field{Key: "payee", Value: description})
			continue
		}
		if !found {
			continue
		}
		if _, learned := s.(*AIStrategy); learned {
			c.learn(description, category)
		}
		return category, true
	}
	return "", false
}

// StrategyNames lists the strategies in evaluation order.
func (c *Categorizer) StrategyNames() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return names
}

// Keywords returns the keyword strategy.
func (c *Categorizer) Keywords() *KeywordCategorizer {
	return c.keywords
}

func (c *Categorizer) learn(payee, category string) {
	c.direct.UpdateMapping(payee, category)
	c.logger.Debug("Auto-learning payee mapping",
		logging.Field{Key: "payee", Value: payee},
		logging.Field{Key: logging.FieldCategory, Value: category})
	if c.store == nil {
		return
	}

	c.saveMu.Lock()
	defer c.saveMu.Unlock()
	if err := c.store.SavePayeeMappings(c.direct.Mappings()); err != nil {
		c.logger.WithError(err).Warn("Failed to save payee mappings")
	}
}
