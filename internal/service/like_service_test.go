package service

import (
	"context"
	"errors"
	"testing"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []*models.Notification
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, n *models.Notification) error {
	p.published = append(p.published, n)
	return p.err
}

func TestLikeService_LikePublishesOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "")
	fan := testutil.CreateUser(t, db, "")
	post := testutil.CreatePost(t, db, author, "hi")

	pub := &recordingPublisher{}
	svc := NewLikeService(repository.NewLikeRepository(db), pub)
	ctx := context.Background()

	n, err := svc.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, n.RecipientID)

	_, err = svc.Like(ctx, fan.ID, post.ID)
	assertCode(t, err, models.CodeStateConflict)

	require.Len(t, pub.published, 1)
	assert.Equal(t, n.ID, pub.published[0].ID)
}

func TestLikeService_PublishFailureDoesNotFailLike(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "")
	post := testutil.CreatePost(t, db, author, "hi")

	svc := NewLikeService(repository.NewLikeRepository(db), &recordingPublisher{err: errors.New("redis down")})
	_, err := svc.Like(context.Background(), author.ID, post.ID)
	assert.NoError(t, err)
}

func TestLikeService_Unlike(t *testing.T) {
	db := testutil.NewTestDB(t)
	author := testutil.CreateUser(t, db, "")
	fan := testutil.CreateUser(t, db, "")
	post := testutil.CreatePost(t, db, author, "hi")
	svc := NewLikeService(repository.NewLikeRepository(db), nil)
	ctx := context.Background()

	assertCode(t, svc.Unlike(ctx, fan.ID, post.ID), models.CodeStateConflict)

	_, err := svc.Like(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unlike(ctx, fan.ID, post.ID))

	var notifications int64
	db.Model(&models.Notification{}).Count(&notifications)
	assert.Equal(t, int64(1), notifications)

	assertCode(t, svc.Unlike(ctx, fan.ID, 999), models.CodeNotFound)
	assertCode(t, svc.Unlike(ctx, 0, post.ID), models.CodeUnauthorized)
}
