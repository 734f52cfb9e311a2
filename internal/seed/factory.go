// Package seed creates demo data for development databases. It is not used
// by the API at runtime.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Agora-Seed-123"

// Factory builds and persists domain entities with fake content.
type Factory struct {
	db      *gorm.DB
	faker   *gofakeit.Faker
	posts   repository.PostRepository
	likes   repository.LikeRepository
	follows repository.FollowRepository
	hash    string
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) (*Factory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		db:      db,
		faker:   gofakeit.New(seed),
		posts:   repository.NewPostRepository(db),
		likes:   repository.NewLikeRepository(db),
		follows: repository.NewFollowRepository(db),
		hash:    string(hash),
	}, nil
}

// CreateUser persists a user with a unique username.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(f.faker.Username())
	username = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, username)
	if len(username) > 22 {
		username = username[:22]
	}
	username = fmt.Sprintf("%s%d", username, f.faker.Number(1000, 9999))

	birth := f.faker.DateRange(time.Now().AddDate(-70, 0, 0), time.Now().AddDate(-18, 0, 0))
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		Password:  f.hash,
		Bio:       f.faker.Sentence(12),
		BirthDate: &birth,
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreatePost persists a post by author with one or two hobby tags.
func (f *Factory) CreatePost(author *models.User) (*models.Post, error) {
	names := []string{f.faker.Hobby()}
	if f.faker.Bool() {
		names = append(names, f.faker.Hobby())
	}
	tags, err := validation.CleanTags(names)
	if err != nil {
		return nil, fmt.Errorf("tag post: %w", err)
	}
	post := &models.Post{
		Content: f.faker.Paragraph(1, 3, 12, "\n"),
		UserID:  author.ID,
		Tags:    tags,
	}
	if err := f.posts.Create(context.Background(), post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(10),
		UserID:  author.ID,
		PostID:  post.ID,
	}
	if err := f.db.Omit("Author").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateBook persists a catalog entry owned by owner.
func (f *Factory) CreateBook(owner *models.User) (*models.Book, error) {
	book := &models.Book{
		Title:           f.faker.BookTitle(),
		Author:          f.faker.BookAuthor(),
		PublicationYear: f.faker.Number(1800, time.Now().Year()),
		CreatedByID:     owner.ID,
	}
	if strings.EqualFold(book.Title, book.Author) {
		book.Title += " (Collected)"
	}
	if err := f.db.Create(book).Error; err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}

// Follow records that follower follows target. Existing edges are kept.
func (f *Factory) Follow(follower, target *models.User) error {
	if follower.ID == target.ID {
		return nil
	}
	err := f.follows.Follow(context.Background(), follower.ID, target.ID)
	if err != nil && !models.IsCode(err, models.CodeStateConflict) {
		return err
	}
	return nil
}

// Like goes through the like repository so every seeded like has its
// notification.
func (f *Factory) Like(user *models.User, post *models.Post) error {
	_, err := f.likes.Like(context.Background(), user.ID, post.ID)
	if err != nil && !models.IsCode(err, models.CodeStateConflict) {
		return err
	}
	return nil
}
