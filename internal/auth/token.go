// Package auth provides the bearer credential and password hashing used by
// the REST surface and the websocket handshake.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mbellot/parley/internal/domain"
)

// Claims is the data carried inside a bearer token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed HS256 token for the user.
func (t *TokenIssuer) Generate(u *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   string(u.ID),
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "parley",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate parses the token and checks signature and expiry.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
