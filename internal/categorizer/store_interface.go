package categorizer

import "fjacquet/stmt-extract/internal/models"

// CategoryStoreInterface supplies the keyword rules and the learned payee
// mappings.
type CategoryStoreInterface interface {
	LoadCategories() ([]models.CategoryConfig, error)
	LoadPayeeMappings() (map[string]string, error)
	SavePayeeMappings(mappings map[string]string) error
}
