package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeTokens struct{}

func (fakeTokens) Issue(userID uint, username string) (string, error) {
	return fmt.Sprintf("token-%d-%s", userID, username), nil
}

const goodPassword = "Correct-Horse-42"

func newTestAccountService(t *testing.T) *AccountService {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := newAccountService(repository.NewUserRepository(db), fakeTokens{}, bcrypt.MinCost)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestAccountService_RegisterAndLogin(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Username:  "alice",
		Email:     " Alice@Example.com ",
		Password:  goodPassword,
		BirthDate: "1990-04-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, goodPassword, res.User.Password)
	assert.Equal(t, fmt.Sprintf("token-%d-alice", res.User.ID), res.Token)

	login, err := svc.Login(ctx, LoginInput{Username: "alice", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	byEmail, err := svc.Login(ctx, LoginInput{Username: "alice@example.com", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, byEmail.User.ID)
}

func TestAccountService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: goodPassword})
	require.NoError(t, err)

	for _, in := range []LoginInput{
		{Username: "bob", Password: "wrong"},
		{Username: "nobody", Password: goodPassword},
		{Username: "", Password: goodPassword},
		{Username: "bob", Password: ""},
	} {
		_, err := svc.Login(ctx, in)
		assertCode(t, err, models.CodeInvalidCredentials)
	}
}

func TestAccountService_RegisterValidation(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "x", Email: "nope", Password: "short", BirthDate: "2020-01-01"})
	assertCode(t, err, models.CodeValidation)
	for _, field := range []string{"username", "email", "password", "birth_date"} {
		assert.NotEmpty(t, fieldMessages(t, err, field), field)
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "carol@example.com", Password: goodPassword})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Username: "carol", Email: "CAROL@example.com", Password: goodPassword})
	assertCode(t, err, models.CodeValidation)
	assert.NotEmpty(t, fieldMessages(t, err, "username"))
	assert.NotEmpty(t, fieldMessages(t, err, "email"))
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc := newTestAccountService(t)
	ctx := context.Background()
	dave, err := svc.Register(ctx, RegisterInput{Username: "dave", Email: "dave@example.com", Password: goodPassword, BirthDate: "1980-01-01"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Username: "erin", Email: "erin@example.com", Password: goodPassword})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, dave.User.ID, ProfileInput{Bio: strPtr("  hello  "), BirthDate: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Nil(t, updated.BirthDate)
	assert.Equal(t, "dave", updated.Username)

	_, err = svc.UpdateProfile(ctx, dave.User.ID, ProfileInput{Username: strPtr("erin")})
	assertCode(t, err, models.CodeValidation)

	// Profile writes never touch the password hash.
	_, err = svc.Login(ctx, LoginInput{Username: "dave", Password: goodPassword})
	assert.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, 999, ProfileInput{})
	assertCode(t, err, models.CodeNotFound)
}
