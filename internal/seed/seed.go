package seed

import (
	"errors"
	"fmt"
	"log/slog"

	"agora/internal/middleware"
	"agora/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options sizes a seeding run.
type Options struct {
	Users    int
	Posts    int
	Books    int
	Clean    bool
	RandSeed int64
}

// Result counts what a run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Likes    int
	Follows  int
	Books    int
}

// Seed populates db with a small social graph: users following each other,
// posts with comments and likes, and a book catalog.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	if opts.Users < 2 {
		return nil, errors.New("seed needs at least 2 users")
	}
	if opts.Clean {
		if err := ClearAll(db); err != nil {
			return nil, err
		}
	}

	f, err := NewFactory(db, opts.RandSeed)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	res.Users = len(users)

	// Each user follows the next few users in a ring.
	for i, u := range users {
		for step := 1; step <= 3 && step < len(users); step++ {
			if err := f.Follow(u, users[(i+step)%len(users)]); err != nil {
				return nil, err
			}
			res.Follows++
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := users[i%len(users)]
		post, err := f.CreatePost(author)
		if err != nil {
			return nil, err
		}
		res.Posts++

		commenter := users[(i+1)%len(users)]
		if _, err := f.CreateComment(commenter, post); err != nil {
			return nil, err
		}
		res.Comments++

		for j := 1; j <= i%3+1 && j < len(users); j++ {
			if err := f.Like(users[(i+j)%len(users)], post); err != nil {
				return nil, err
			}
			res.Likes++
		}
	}

	for i := 0; i < opts.Books; i++ {
		if _, err := f.CreateBook(users[i%len(users)]); err != nil {
			return nil, err
		}
		res.Books++
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", res.Users),
		slog.Int("posts", res.Posts),
		slog.Int("likes", res.Likes),
		slog.Int("books", res.Books),
	)
	return res, nil
}

// ClearAll deletes every domain row, children first.
func ClearAll(db *gorm.DB) error {
	tables := []any{
		&models.Notification{},
		&models.Like{},
		&models.Comment{},
		&models.Post{},
		&models.Tag{},
		&models.Follow{},
		&models.Book{},
		&models.User{},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags").Error; err != nil {
			return fmt.Errorf("clear post_tags: %w", err)
		}
		for _, t := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t).Error; err != nil {
				return fmt.Errorf("clear %T: %w", t, err)
			}
		}
		return nil
	})
}

// EnsureAdmin creates an administrator account if username is not taken and
// promotes it otherwise. It reports whether a new account was created.
func EnsureAdmin(db *gorm.DB, username, email, password string) (bool, error) {
	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		if existing.IsAdmin {
			return false, nil
		}
		return false, db.Model(&existing).Update("is_admin", true).Error
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		Username: username,
		Email:    email,
		Password: string(hash),
		IsAdmin:  true,
	}
	if err := db.Create(admin).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
