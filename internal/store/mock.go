package store

import "fjacquet/stmt-extract/internal/models"

// MockCategoryStore is a CategoryStore stand-in for tests.
type MockCategoryStore struct {
	Categories          []models.CategoryConfig
	LoadCategoriesError error
	Loads               int

	Payees           map[string]string
	LoadPayeesError  error
	SavePayeesError  error
	SavedPayees      map[string]string
	SavePayeesCalled int
}

// LoadCategories returns the configured categories or error.
func (m *MockCategoryStore) LoadCategories() ([]models.CategoryConfig, error) {
	m.Loads++
	if m.LoadCategoriesError != nil {
		return nil, m.LoadCategoriesError
	}
	return m.Categories, nil
}

// LoadPayeeMappings returns a copy of Payees.
func (m *MockCategoryStore) LoadPayeeMappings() (map[string]string, error) {
	if m.LoadPayeesError != nil {
		return nil, m.LoadPayeesError
	}
	out := make(map[string]string, len(m.Payees))
	for k, v := range m.Payees {
		out[k] = v
	}
	return out, nil
}

// SavePayeeMappings records the saved mappings.
func (m *MockCategoryStore) SavePayeeMappings(mappings map[string]string) error {
	m.SavePayeesCalled++
	if m.SavePayeesError != nil {
		return m.SavePayeesError
	}
	m.SavedPayees = mappings
	return nil
}
