package repository

import (
	"context"
	"strings"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// BookFilter narrows a catalog listing. Zero values mean no filter.
type BookFilter struct {
	Search   string
	Author   string
	Year     int
	Ordering string
}

// bookOrderings whitelists the accepted ordering parameter values.
var bookOrderings = map[string]string{
	"title":             "title ASC, id ASC",
	"-title":            "title DESC, id DESC",
	"publication_year":  "publication_year ASC, id ASC",
	"-publication_year": "publication_year DESC, id DESC",
	"created_at":        "created_at ASC, id ASC",
	"-created_at":       "created_at DESC, id DESC",
}

// ValidBookOrdering reports whether ordering is accepted by List.
func ValidBookOrdering(ordering string) bool {
	if ordering == "" {
		return true
	}
	_, ok := bookOrderings[ordering]
	return ok
}

// BookRepository defines persistence operations for the book catalog.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, filter BookFilter, limit, offset int) ([]*models.Book, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := cache.Aside(ctx, cache.BookKey(id), &book, cache.BookTTL, func() error {
		if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
			return lookupError(err, "Book", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter, limit, offset int) ([]*models.Book, error) {
	q := r.db.WithContext(ctx).Model(&models.Book{})

	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", like, like)
	}
	if a := strings.TrimSpace(filter.Author); a != "" {
		q = q.Where("LOWER(author) = ?", strings.ToLower(a))
	}
	if filter.Year != 0 {
		q = q.Where("publication_year = ?", filter.Year)
	}

	order, ok := bookOrderings[filter.Ordering]
	if !ok {
		order = "created_at DESC, id DESC"
	}

	var books []*models.Book
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&books).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return books, nil
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).
		Model(book).
		Select("title", "author", "publication_year", "updated_at").
		Updates(book).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateBook(ctx, book.ID)
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Book{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Book", id)
	}
	cache.InvalidateBook(ctx, id)
	return nil
}
