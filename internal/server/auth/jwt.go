// Package auth issues and verifies the stateless JWT token pair and holds
// the password hashing helpers used by the credential issuer.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes the two halves of a token pair so a refresh
// token can never be presented as an access token and vice versa.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims embeds the registered claims and carries the user id and the token type.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string    `json:"user_id"`
	TokenType TokenType `json:"token_type"`
}

// GenerateToken signs an HS256 token of the given type for userID that
// expires after validityDuration.
func GenerateToken(userID string, tokenType TokenType, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID:    userID,
		TokenType: tokenType,
	})

	return token.SignedString(secretKey)
}

// GetUserIDFromToken verifies tokenString and returns its user id. The
// token must be of the expected type. Expired tokens yield
// common.ErrTokenExpired, everything else common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, tokenType TokenType, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.TokenType != tokenType {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}
