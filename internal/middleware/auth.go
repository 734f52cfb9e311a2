package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agora/internal/config"
	"agora/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token errors. Callers map all of them to 401.
var (
	ErrMissingToken = errors.New("authorization required")
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims are the verified contents of an access token.
type Claims struct {
	UserID    uint
	Username  string
	ID        string
	ExpiresAt time.Time
}

// TokenManager issues, verifies and revokes access tokens. Tokens are HS256
// JWTs; revocation stores the token ID in Redis until the token would have
// expired anyway.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	rdb      *redis.Client
	now      func() time.Time
}

// NewTokenManager creates a TokenManager from config. rdb may be nil, in
// which case revocation is unavailable.
func NewTokenManager(cfg *config.Config, rdb *redis.Client) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      time.Duration(cfg.TokenTTLHours) * time.Hour,
		rdb:      rdb,
		now:      time.Now,
	}
}

// Issue creates a signed token for the user.
func (m *TokenManager) Issue(userID uint, username string) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := m.now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      m.issuer,
		"aud":      m.audience,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Parse verifies the signature, standard claims and revocation state.
func (m *TokenManager) Parse(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(m.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: uint(userID)}
	claims.Username, _ = mapClaims["username"].(string)
	claims.ID, _ = mapClaims["jti"].(string)
	if exp, expErr := mapClaims.GetExpirationTime(); expErr == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.ID != "" && m.rdb != nil {
		revoked, err := m.rdb.Exists(ctx, revokedKey(claims.ID)).Result()
		if err != nil {
			// Revocation is best effort; an unreachable Redis must not lock everyone out.
			observability.RedisErrorRate.WithLabelValues("token_revocation_check").Inc()
		} else if revoked > 0 {
			return nil, ErrRevokedToken
		}
	}

	return claims, nil
}

// Revoke blacklists the token until its expiry.
func (m *TokenManager) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	if m.rdb == nil {
		return fmt.Errorf("token revocation requires redis")
	}
	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	if err := m.rdb.Set(ctx, revokedKey(claims.ID), "1", ttl).Err(); err != nil {
		observability.RedisErrorRate.WithLabelValues("token_revoke").Inc()
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func revokedKey(jti string) string {
	return "blacklist:" + jti
}

// ExtractToken returns the credential from an "Authorization: Bearer <t>" or
// "Authorization: Token <t>" header. When allowQuery is set it also accepts
// a ?token= query parameter, which browsers need for websocket upgrades.
func ExtractToken(c *fiber.Ctx, allowQuery bool) (string, error) {
	if header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return "", ErrInvalidToken
		}
		if !strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token") {
			return "", ErrInvalidToken
		}
		return token, nil
	}
	if allowQuery {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
	}
	return "", ErrMissingToken
}
