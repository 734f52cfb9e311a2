package service

import (
	"context"
	"time"

	"agora/internal/access"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"
)

// BookInput is the writable part of a book. Nil fields were absent from the
// request body.
type BookInput struct {
	Title           *string          `json:"title"`
	Author          *string          `json:"author"`
	PublicationYear *validation.Year `json:"publication_year"`
}

type BookService struct {
	repo     repository.BookRepository
	policies ContentPolicies
	now      func() time.Time
}

func NewBookService(repo repository.BookRepository, policies ContentPolicies) *BookService {
	return &BookService{repo: repo, policies: policies, now: time.Now}
}

func (s *BookService) Get(ctx context.Context, id uint) (*models.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BookService) List(ctx context.Context, filter repository.BookFilter, page ListParams) ([]*models.Book, error) {
	if !repository.ValidBookOrdering(filter.Ordering) {
		return nil, models.NewFieldValidationError(map[string][]string{
			"ordering": {"Unsupported ordering."},
		})
	}
	return s.repo.List(ctx, filter, page.Limit, page.Offset)
}

func (s *BookService) Create(ctx context.Context, req access.Request, in BookInput) (*models.Book, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}
	book := &models.Book{CreatedByID: req.UserID}
	if err := s.apply(book, in, false); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Update replaces (partial=false) or patches (partial=true) a book owned by
// the caller.
func (s *BookService) Update(ctx context.Context, req access.Request, id uint, in BookInput, partial bool) (*models.Book, error) {
	if err := s.policies.Write.Check(req); err != nil {
		return nil, err
	}
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Write.CheckObject(req, book); err != nil {
		return nil, err
	}
	if err := s.apply(book, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

func (s *BookService) Delete(ctx context.Context, req access.Request, id uint) error {
	if err := s.policies.Delete.Check(req); err != nil {
		return err
	}
	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policies.Delete.CheckObject(req, book); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// apply validates in and copies the cleaned values onto book. Every field is
// checked so the caller sees all messages at once.
func (s *BookService) apply(book *models.Book, in BookInput, partial bool) error {
	errs := validation.FieldErrors{}
	title, author, year := book.Title, book.Author, book.PublicationYear

	if in.Title != nil {
		v, err := validation.CleanBookTitle(*in.Title)
		errs.AddErr("title", err)
		title = v
	} else if !partial {
		errs.Add("title", fieldRequired)
	}

	if in.Author != nil {
		v, err := validation.CleanBookAuthor(*in.Author)
		errs.AddErr("author", err)
		author = v
	} else if !partial {
		errs.Add("author", fieldRequired)
	}

	if in.PublicationYear != nil {
		v, err := validation.CleanPublicationYear(*in.PublicationYear, s.now())
		errs.AddErr("publication_year", err)
		year = v
	} else if !partial {
		errs.Add("publication_year", fieldRequired)
	}

	if !errs.Has("title") && !errs.Has("author") && title != "" && author != "" {
		errs.AddErr(models.NonFieldErrors, validation.CheckTitleAuthorDistinct(title, author))
	}
	if err := errs.Err(); err != nil {
		return err
	}

	book.Title, book.Author, book.PublicationYear = title, author, year
	return nil
}
