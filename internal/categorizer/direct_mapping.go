package categorizer

import (
	"context"
	"strings"
	"sync"

	"fjacquet/stmt-extract/internal/logging"
)

// normalizePayee lower-cases and collapses whitespace so OCR spacing does
// not split one payee into several mappings.
func normalizePayee(payee string) string {
	return strings.Join(strings.Fields(strings.ToLower(payee)), " ")
}

// DirectMappingStrategy answers from exact payee to category mappings:
// the payees file plus whatever was learned during this run.
type DirectMappingStrategy struct {
	mappings map[string]string
	logger   logging.Logger
	mu       sync.RWMutex
}

// NewDirectMappingStrategy loads the mappings from store. A load error is
// logged and leaves the cache empty. A nil store is allowed.
func NewDirectMappingStrategy(store CategoryStoreInterface, logger logging.Logger) *DirectMappingStrategy {
	s := &DirectMappingStrategy{
		mappings: make(map[string]string),
		logger:   logging.OrDefault(logger),
	}
	if store == nil {
		return s
	}

	mappings, err := store.LoadPayeeMappings()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load payee mappings")
		return s
	}
	for payee, category := range mappings {
		if key := normalizePayee(payee); key != "" && category != "" {
			s.mappings[key] = category
		}
	}
	s.logger.Debug("Loaded payee mappings for DirectMappingStrategy",
		logging.Field{Key: logging.FieldCount, Value: len(s.mappings)})
	return s
}

func (s *DirectMappingStrategy) Name() string { return "DirectMapping" }

func (s *DirectMappingStrategy) Categorize(_ context.Context, description string) (string, bool, error) {
	key := normalizePayee(description)
	if key == "" {
		return "", false, nil
	}

	s.mu.RLock()
	category, found := s.mappings[key]
	s.mu.RUnlock()

	if found {
		s.logger.Debug("Line item categorized using payee mapping",
			logging.Field{Key: "strategy", Value: s.Name()},
			logging.Field{Key: "payee", Value: description},
			logging.Field{Key: logging.FieldCategory, Value: category})
	}
	return category, found, nil
}

// UpdateMapping adds or replaces a payee mapping.
func (s *DirectMappingStrategy) UpdateMapping(payee, category string) {
	key := normalizePayee(payee)
	if key == "" || category == "" {
		return
	}
	s.mu.Lock()
	s.mappings[key] = category
	s.mu.Unlock()
}

// Mappings returns a copy of the current mappings.
func (s *DirectMappingStrategy) Mappings() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.mappings))
	for k, v := range s.mappings {
		out[k] = v
	}
	return out
}
