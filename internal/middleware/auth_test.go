package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"agora/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     testSecret,
		JWTIssuer:     "agora-api",
		JWTAudience:   "agora-client",
		TokenTTLHours: 1,
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenManager_IssueAndParse(t *testing.T) {
	tm := NewTokenManager(testConfig(), nil)

	token, err := tm.Issue(42, "alice")
	require.NoError(t, err)

	claims, err := tm.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokenManager_ParseRejects(t *testing.T) {
	tm := NewTokenManager(testConfig(), nil)

	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(7),
			"iss": "agora-api",
			"aud": "agora-client",
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	expired := base()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongIssuer := base()
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := base()
	wrongAudience["aud"] = "other-client"
	noExpiry := base()
	delete(noExpiry, "exp")
	badSubject := base()
	badSubject["sub"] = "not-a-number"

	tests := map[string]string{
		"malformed":      "malformed.token.here",
		"wrong secret":   sign(base(), "another-secret-another-secret-0000"),
		"expired":        sign(expired, testSecret),
		"wrong issuer":   sign(wrongIssuer, testSecret),
		"wrong audience": sign(wrongAudience, testSecret),
		"no expiry":      sign(noExpiry, testSecret),
		"bad subject":    sign(badSubject, testSecret),
	}

	for name, token := range tests {
		token := token
		t.Run(name, func(t *testing.T) {
			_, err := tm.Parse(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenManager_Revoke(t *testing.T) {
	mr, rdb := newRedis(t)
	tm := NewTokenManager(testConfig(), rdb)
	ctx := context.Background()

	token, err := tm.Issue(1, "bob")
	require.NoError(t, err)
	claims, err := tm.Parse(ctx, token)
	require.NoError(t, err)

	require.NoError(t, tm.Revoke(ctx, claims))
	assert.True(t, mr.Exists("blacklist:"+claims.ID))
	assert.Greater(t, mr.TTL("blacklist:"+claims.ID), time.Duration(0))

	_, err = tm.Parse(ctx, token)
	assert.ErrorIs(t, err, ErrRevokedToken)
}

func TestTokenManager_RevokeWithoutRedis(t *testing.T) {
	tm := NewTokenManager(testConfig(), nil)
	err := tm.Revoke(context.Background(), &Claims{ID: "x", ExpiresAt: time.Now().Add(time.Hour)})
	assert.Error(t, err)
	assert.NoError(t, tm.Revoke(context.Background(), nil))
}

func TestTokenManager_ParseToleratesRedisOutage(t *testing.T) {
	mr, rdb := newRedis(t)
	tm := NewTokenManager(testConfig(), rdb)
	token, err := tm.Issue(3, "carol")
	require.NoError(t, err)

	mr.Close()
	claims, err := tm.Parse(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		want       string
		wantErr    error
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "token scheme", header: "Token abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "basic rejected", header: "Basic dXNlcjpwYXNz", wantErr: ErrInvalidToken},
		{name: "scheme only", header: "Bearer", wantErr: ErrInvalidToken},
		{name: "missing", wantErr: ErrMissingToken},
		{name: "query ignored", query: "abc", wantErr: ErrMissingToken},
		{name: "query allowed", query: "abc", allowQuery: true, want: "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				token, err := ExtractToken(c, tt.allowQuery)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NoError(t, err)
					assert.Equal(t, tt.want, token)
				}
				return c.SendStatus(fiber.StatusOK)
			})

			target := "/"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			_ = resp.Body.Close()
		})
	}
}
