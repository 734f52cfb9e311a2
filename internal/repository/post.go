package repository

import (
	"context"
	"strings"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/validation"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero values mean no filter.
type PostFilter struct {
	AuthorID uint
	// Search matches content, author username and tag names.
	Search string
	// Tag is a tag name or slug.
	Tag string
}

// PostRepository defines the interface for post data operations.
// Create and Update replace the post's tags when post.Tags is non-nil.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Feed(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		if post.Tags != nil {
			return replaceTags(tx, post)
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// replaceTags makes post.Tags the post's complete tag set, creating tags
// that do not exist yet. Tags are keyed by slug.
func replaceTags(tx *gorm.DB, post *models.Post) error {
	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", post.ID).Error; err != nil {
		return err
	}
	for i := range post.Tags {
		tag := &post.Tags[i]
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&models.Tag{Name: tag.Name, Slug: tag.Slug}).Error; err != nil {
			return err
		}
		if err := tx.Where("slug = ?", tag.Slug).First(tag).Error; err != nil {
			return err
		}
		if err := tx.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)", post.ID, tag.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID serves anonymous reads from cache; per-user reads need the liked flag.
func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	load := func() error {
		if err := preloadTags(applyPostDetails(r.db.WithContext(ctx), currentUserID)).
			Preload("Author").
			First(&post, id).Error; err != nil {
			return lookupError(err, "Post", id)
		}
		return nil
	}

	var err error
	if currentUserID == 0 {
		err = cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, load)
	} else {
		err = load()
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	q := applyPostDetails(r.db.WithContext(ctx), currentUserID)
	if filter.AuthorID != 0 {
		q = q.Where("posts.user_id = ?", filter.AuthorID)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(posts.content) LIKE ?"+
			" OR posts.user_id IN (SELECT id FROM users WHERE LOWER(username) LIKE ?)"+
			" OR posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE LOWER(tags.name) LIKE ?)",
			like, like, like)
	}
	if t := strings.TrimSpace(filter.Tag); t != "" {
		q = q.Where("posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE tags.slug = ?)",
			validation.Slugify(t))
	}
	return r.find(q, limit, offset)
}

// Feed lists posts authored by users followerID follows.
func (r *postRepository) Feed(ctx context.Context, followerID uint, limit, offset int) ([]*models.Post, error) {
	return r.find(applyPostDetails(r.db.WithContext(ctx), followerID).
		Where("posts.user_id IN (SELECT following_id FROM follows WHERE follower_id = ?)", followerID), limit, offset)
}

func (r *postRepository) find(q *gorm.DB, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := preloadTags(q).Preload("Author").
		Order("posts.created_at DESC, posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("tags.name ASC")
	})
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.post_id = posts.id AND likes.user_id = ?) AS liked", currentUserID)
	}
	return db.Select(selectQuery + ", false AS liked")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).
			Omit(clause.Associations).
			Select("content", "updated_at").
			Updates(post).Error; err != nil {
			return err
		}
		if post.Tags != nil {
			return replaceTags(tx, post)
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.ID)
	return nil
}

// Delete removes the post with its comments and likes. Notifications that
// point at the post survive with the target cleared.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Notification{}).
			Where("target_post_id = ?", id).
			Update("target_post_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return err
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, id)
	return nil
}
