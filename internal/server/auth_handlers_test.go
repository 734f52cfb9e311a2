package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"username": "ada",
		"email":    "ada@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusCreated, status, string(body))
	assert.Equal(t, "ada", gjson.GetBytes(body, "user.username").String())
	assert.False(t, gjson.GetBytes(body, "user.password").Exists())

	status, body = env.do(t, http.MethodPost, "/login/", "", map[string]string{
		"username": "ada",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusOK, status, string(body))
	token := gjson.GetBytes(body, "token").String()
	assert.NotEmpty(t, token)

	status, body = env.do(t, http.MethodGet, "/profile/", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ada", gjson.GetBytes(body, "username").String())

	status, _ = env.do(t, http.MethodPost, "/logout/", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, "/profile/", token, nil)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/register/", "", map[string]string{
		"username": "x",
		"email":    "not-an-email",
		"password": "weak",
	})
	assertErrorCode(t, http.StatusBadRequest, models.CodeValidation, status, body)
	for _, field := range []string{"username", "email", "password"} {
		assert.True(t, gjson.GetBytes(body, "fields."+field).Exists(), field)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.register(t)

	status, body := env.do(t, http.MethodPost, "/login/", "", map[string]string{
		"username": "nobody",
		"password": testPassword,
	})
	assertErrorCode(t, http.StatusBadRequest, models.CodeInvalidCredentials, status, body)
}

func TestInvalidTokenIsRejectedEvenOnReads(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/posts/", "garbage", nil)
	assertErrorCode(t, http.StatusUnauthorized, models.CodeUnauthorized, status, body)

	status, _ = env.do(t, http.MethodGet, "/posts/", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestTokenScheme(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t)

	req := httptest.NewRequest(http.MethodGet, "/profile/", nil)
	req.Header.Set("Authorization", "Token "+token)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
