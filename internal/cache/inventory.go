package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
	BookKeyPrefix = "book:%d"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	BookTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func BookKey(bookID uint) string {
	return fmt.Sprintf(BookKeyPrefix, bookID)
}

// Invalidate deletes keys. Failures only cost a stale read until TTL.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, UserKey(id))
	}
	Invalidate(ctx, keys...)
}

func InvalidatePost(ctx context.Context, postID uint) {
	Invalidate(ctx, PostKey(postID))
}

func InvalidateBook(ctx context.Context, bookID uint) {
	Invalidate(ctx, BookKey(bookID))
}
