package categorizer

import "context"

// CategorizationStrategy is one way of finding a category for a line item
// description.
type CategorizationStrategy interface {
	// Categorize returns the category and whether one was found. An error
	// means the strategy could not run; the caller moves on to the next
	// strategy.
	Categorize(ctx context.Context, description string) (string, bool, error)

	// Name identifies the strategy in logs.
	Name() string
}
