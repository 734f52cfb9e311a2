package repository

import (
	"context"
	"testing"

	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_Transitions(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	repo := NewFollowRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))

	err := repo.Follow(ctx, alice.ID, bob.ID)
	assert.True(t, models.IsCode(err, models.CodeStateConflict))

	// Directed: bob does not follow alice back.
	following, err := repo.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followers, err := repo.Followers(ctx, bob.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)
	assert.Equal(t, 1, followers[0].FollowingCount)

	list, err := repo.Following(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bob.ID, list[0].ID)
	assert.Equal(t, 1, list[0].FollowersCount)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	err = repo.Unfollow(ctx, alice.ID, bob.ID)
	assert.True(t, models.IsCode(err, models.CodeStateConflict))
}

func TestUserRepository_CountsAndDuplicates(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	a := &models.User{Username: "carol", Email: "carol@example.com", Password: "hash"}
	require.NoError(t, users.Create(ctx, a))
	b := testutil.CreateUser(t, db, "dave")
	require.NoError(t, follows.Follow(ctx, b.ID, a.ID))

	got, err := users.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FollowersCount)
	assert.Equal(t, 0, got.FollowingCount)

	err = users.Create(ctx, &models.User{Username: "carol", Email: "other@example.com", Password: "hash"})
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "username")

	byEmail, err := users.GetByEmail(ctx, "CAROL@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, a.ID, byEmail.ID)

	missing, err := users.GetByUsername(ctx, "nobody")
	assert.NoError(t, err)
	assert.Nil(t, missing)

	_, err = users.GetByID(ctx, 999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_UpdateKeepsPassword(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	u := testutil.CreateUser(t, db, "erin")
	loaded, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	loaded.Password = ""
	loaded.Bio = "reader"
	require.NoError(t, users.Update(ctx, loaded))

	var stored models.User
	require.NoError(t, db.First(&stored, u.ID).Error)
	assert.Equal(t, "reader", stored.Bio)
	assert.Equal(t, "x", stored.Password)
}

func TestUserRepository_SetAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "")

	require.NoError(t, users.SetAdmin(ctx, u.ID, true))
	admins, err := users.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	err = users.SetAdmin(ctx, 12345, true)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
