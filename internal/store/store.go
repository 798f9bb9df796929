// Package store loads the category rules file used to label extracted
// line items and keeps the learned payee to category mappings.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
)

// Files looked up when none is configured.
const (
	DefaultCategoriesFile = "categories.yaml"
	DefaultPayeesFile     = "payees.yaml"
)

// CategoryStore reads category rules and payee mappings from YAML files.
type CategoryStore struct {
	CategoriesFile string
	PayeesFile     string
	logger         logging.Logger
}

// NewCategoryStore creates a store for the given files. Empty names mean
// DefaultCategoriesFile and DefaultPayeesFile.
func NewCategoryStore(categoriesFile, payeesFile string, logger logging.Logger) *CategoryStore {
	return &CategoryStore{
		CategoriesFile: categoriesFile,
		PayeesFile:     payeesFile,
		logger:         logging.OrDefault(logger),
	}
}

// FindConfigFile looks for filename as given, then under ./config, then
// under ~/.stmt-extract.
func (s *CategoryStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".stmt-extract", filename))
	}

	for _, location := range locations {
		if info, err := os.Stat(location); err == nil && !info.IsDir() {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

// LoadCategories reads the rules file. A missing file yields no rules and
// no error; categorization is optional.
func (s *CategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	filename := s.CategoriesFile
	if filename == "" {
		filename = DefaultCategoriesFile
	}

	path, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Categories file not found, categorization disabled",
				logging.Field{Key: logging.FieldFile, Value: filename})
			return []models.CategoryConfig{}, nil
		}
		return nil, fmt.Errorf("error resolving categories file: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("error reading categories file: %w", err)
	}

	categories, err := parseCategories(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing categories file %s: %w", path, err)
	}

	s.logger.Debug("Loaded categories",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(categories)})
	return categories, nil
}

func (s *CategoryStore) payeesFile() string {
	if s.PayeesFile == "" {
		return DefaultPayeesFile
	}
	return s.PayeesFile
}

// LoadPayeeMappings reads the payee to category map. A missing file yields
// an empty map and no error.
func (s *CategoryStore) LoadPayeeMappings() (map[string]string, error) {
	filename := s.payeesFile()

	path, err := s.FindConfigFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("Payee mappings file not found",
				logging.Field{Key: logging.FieldFile, Value: filename})
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error resolving payee mappings file: %w", err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("error reading payee mappings file: %w", err)
	}

	mappings := map[string]string{}
	if err := yaml.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("error parsing payee mappings file %s: %w", path, err)
	}

	s.logger.Debug("Loaded payee mappings",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return mappings, nil
}

// SavePayeeMappings writes the payee to category map. An existing file
// found by FindConfigFile is overwritten; otherwise the configured path is
// created.
func (s *CategoryStore) SavePayeeMappings(mappings map[string]string) error {
	filename := s.payeesFile()

	path, err := s.FindConfigFile(filename)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error resolving payee mappings file: %w", err)
		}
		path = filename
	}

	if err := os.MkdirAll(filepath.Dir(path), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	data, err := yaml.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("error marshaling payee mappings: %w", err)
	}
	if err := os.WriteFile(path, data, models.PermissionConfigFile); err != nil {
		return fmt.Errorf("error writing payee mappings: %w", err)
	}

	s.logger.Debug("Saved payee mappings",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(mappings)})
	return nil
}

// parseCategories accepts either a top-level "categories:" key or a bare
// list. Rules without a name or keywords are dropped.
func parseCategories(data []byte) ([]models.CategoryConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return []models.CategoryConfig{}, nil
	}

	var raw []models.CategoryConfig
	if root.Content[0].Kind == yaml.SequenceNode {
		if err := root.Content[0].Decode(&raw); err != nil {
			return nil, err
		}
	} else {
		var cfg models.CategoriesConfig
		if err := root.Content[0].Decode(&cfg); err != nil {
			return nil, err
		}
		raw = cfg.Categories
	}

	categories := make([]models.CategoryConfig, 0, len(raw))
	for _, c := range raw {
		if c.Name == "" || len(c.Keywords) == 0 {
			continue
		}
		categories = append(categories, c)
	}
	return categories, nil
}
