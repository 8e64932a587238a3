// Package httpapi implements the thin HTTP control layer: account
// signup/signin, reading/updating a user's bot configuration, and
// starting/stopping the engine for that user, grounded on the JWT +
// gin + bcrypt stack the Cosmos-chain example carries end to end.
package httpapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims is the JWT payload identifying the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// AuthService issues and validates bearer tokens and hashes passwords.
type AuthService struct {
	signingKey    []byte
	tokenDuration time.Duration
}

// NewAuthService constructs an AuthService with the given HMAC signing
// secret and token lifetime.
func NewAuthService(signingKey string, tokenDuration time.Duration) *AuthService {
	return &AuthService{signingKey: []byte(signingKey), tokenDuration: tokenDuration}
}

// HashPassword wraps bcrypt.GenerateFromPassword at the default cost.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("httpapi: hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether plaintext matches the stored hash.
func ComparePassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// GenerateToken issues a signed JWT for an authenticated user.
func (a *AuthService) GenerateToken(userID uint, email, username string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "raysentinel",
			Subject:   fmt.Sprintf("%d", userID),
		},
		UserID:   userID,
		Email:    email,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", fmt.Errorf("httpapi: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a bearer token, returning its claims.
func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("httpapi: parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("httpapi: invalid token")
	}
	return claims, nil
}
