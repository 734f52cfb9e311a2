package database

import "agora/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Follow{},
		&models.Tag{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
		&models.Book{},
	}
}
