package database

import "campusmarket/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Category{},
		&models.Listing{},
		&models.ListingImage{},
		&models.Conversation{},
		&models.Message{},
		&models.Favorite{},
		&models.Notification{},
		&models.Report{},
	}
}
