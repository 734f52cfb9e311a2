package models

import (
	"time"
)

// Book is an entry in the shared book catalog.
type Book struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null;index" json:"title"`
	Author          string    `gorm:"size:100;not null;index" json:"author"`
	PublicationYear int       `gorm:"not null" json:"publication_year"`
	CreatedByID     uint      `gorm:"not null;index" json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OwnerID returns the ID of the user who added the book.
func (b *Book) OwnerID() uint {
	return b.CreatedByID
}
