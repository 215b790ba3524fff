// Package auth holds the credential and session primitives of the server:
// password hashing, session token generation and the signed cookie wrapper.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims wraps the raw session token in a signed envelope so a cookie value
// cannot be forged or altered without the server secret.
type Claims struct {
	jwt.RegisteredClaims
	SessionToken string `json:"sid"`
}

// GenerateToken signs sessionToken with secretKey (HS256); the envelope
// expires after validityDuration.
func GenerateToken(sessionToken string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		SessionToken: sessionToken,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSessionToken verifies tokenString and returns the session token inside.
// Expired envelopes yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func GetSessionToken(tokenString string, secretKey []byte) (string, error) {
	return parse(tokenString, secretKey)
}

// GetSessionTokenIgnoringExpiry verifies the signature only. Logout uses it so
// a stale cookie can still remove its session row.
func GetSessionTokenIgnoringExpiry(tokenString string, secretKey []byte) (string, error) {
	return parse(tokenString, secretKey, jwt.WithoutClaimsValidation())
}

func parse(tokenString string, secretKey []byte, opts ...jwt.ParserOption) (string, error) {
	claims := &Claims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.SessionToken == "" {
		return "", common.ErrInvalidToken
	}

	return claims.SessionToken, nil
}
