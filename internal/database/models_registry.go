package database

import "inkwell/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models,
// in foreign key order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscription{},
		&models.Site{},
		&models.Post{},
	}
}
