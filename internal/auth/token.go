// Package auth verifies HS256 bearer tokens and turns them into a
// shared.Principal on the request context. Tokens are minted elsewhere.
package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"

	"github.com/realty-erp/realty-erp/internal/shared"
)

// Claims is the token payload. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens verifies access tokens signed with a shared secret.
type Tokens struct {
	secret []byte
}

// NewTokens builds a verifier for secret.
func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	return &Tokens{secret: []byte(secret)}, nil
}

// Verify parses raw and returns the principal it names. Every failure wraps
// shared.ErrUnauthorized.
func (t *Tokens) Verify(raw string) (*shared.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUnauthorized, err)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject", shared.ErrUnauthorized)
	}
	role, ok := shared.ParseRole(claims.Role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role", shared.ErrUnauthorized)
	}
	return &shared.Principal{UserID: userID, Email: claims.Email, Role: role}, nil
}
