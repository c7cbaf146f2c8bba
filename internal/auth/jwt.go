package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sundayschool-dev/sundayschool/internal/assert"
	"github.com/sundayschool-dev/sundayschool/internal/models"
)

// JWTClaims represents the JWT token claims. RegisteredClaims.ID carries the
// server-side session ID.
type JWTClaims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionID returns the session the token was issued for
func (c *JWTClaims) SessionID() string {
	return c.ID
}

// Tokens signs and validates HS256 session tokens
type Tokens struct {
	secret []byte
}

// NewTokens creates a signer for secret
func NewTokens(secret string) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("JWT secret not initialized")
	}
	return &Tokens{secret: []byte(secret)}, nil
}

const secretLength = 64

// GenerateSecret returns 64 hex characters (32 bytes of randomness)
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	secret := hex.EncodeToString(b)
	assert.Length("jwt secret", secret, secretLength)
	return secret, nil
}

// Issue creates a token for the given session
func (t *Tokens) Issue(userID, sessionID string, role models.Role, expiresAt time.Time) (string, error) {
	assert.True(sessionID != "", "token issued without a session")

	now := time.Now()
	claims := JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate validates a JWT token and returns the claims
func (t *Tokens) Validate(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid && claims.ID != "" {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
