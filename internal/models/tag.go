package models

// Tag labels posts. Slug is the normalized, unique form used in filters.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:100;not null" json:"slug"`
}
