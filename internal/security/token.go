package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("access token required")
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// RoleAdmin grants marketplace-wide operator rights.
const RoleAdmin = "ADMIN"

const (
	issuer   = "equiprent-auth"
	audience = "equiprent-api"
)

// UserClaims defines the claims the API accepts
type UserClaims struct {
	UserID int32     `json:"user_id"`
	Type   TokenType `json:"type"`
	Roles  []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *UserClaims) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// TokenManager validates bearer tokens. Issuing lives with the identity service;
// GenerateAccessToken exists for operational tooling and tests.
type TokenManager interface {
	GenerateAccessToken(userID int32, roles []string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
}

type tokenManager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, expiry time.Duration) TokenManager {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &tokenManager{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (m *tokenManager) GenerateAccessToken(userID int32, roles []string) (string, error) {
	now := m.now()
	claims := UserClaims{
		UserID: userID,
		Type:   TokenTypeAccess,
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience(audience), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.Atoi(claims.Subject)
		claims.UserID = int32(uid)
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
