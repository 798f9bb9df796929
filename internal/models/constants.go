package models

// Categories
const (
	CategoryUncategorized = "Uncategorized"
	CategoryGroceries     = "Groceries"
	CategoryRestaurants   = "Restaurants"
	CategoryTransport     = "Transport"
	CategoryShopping      = "Shopping"
	CategoryPayments      = "Payments"
)

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionExportFile = 0644
)
