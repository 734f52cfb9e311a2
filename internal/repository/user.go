package repository

import (
	"context"
	"errors"
	"strings"

	"agora/internal/cache"
	"agora/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetAdmin(ctx context.Context, id uint, isAdmin bool) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	ListAdmins(ctx context.Context) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// withFollowCounts selects the computed follower and following counts.
func withFollowCounts(db *gorm.DB) *gorm.DB {
	return db.Select("users.*, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.following_id = users.id) AS followers_count, " +
		"(SELECT COUNT(*) FROM follows WHERE follows.follower_id = users.id) AS following_count")
}

// GetByID is cached; the cached copy never carries the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := withFollowCounts(r.db.WithContext(ctx)).First(&user, id).Error; err != nil {
			return lookupError(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns nil, nil when no user matches.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

// GetByEmail returns nil, nil when no user matches. Emails compare case-insensitively.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return duplicateUserError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func duplicateUserError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "username"):
		return models.NewFieldValidationError(map[string][]string{
			"username": {"A user with that username already exists."},
		})
	case strings.Contains(msg, "email"):
		return models.NewFieldValidationError(map[string][]string{
			"email": {"A user with that email already exists."},
		})
	}
	return models.NewValidationError("User already exists")
}

// Update writes the profile columns only. Password and admin flag have
// their own paths, and cached users carry no password hash.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).
		Model(user).
		Select("username", "email", "bio", "birth_date", "profile_image", "updated_at").
		Updates(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return duplicateUserError(err)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) SetAdmin(ctx context.Context, id uint, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_admin", isAdmin)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	var users []models.User
	if err := withFollowCounts(r.db.WithContext(ctx)).
		Order("users.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).Where("is_admin = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
