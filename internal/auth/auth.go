package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MarkerClaims identify the console user alongside the backend session.
// The marker carries no backend authority; the sid cookie does.
type MarkerClaims struct {
	jwt.RegisteredClaims
	Remember bool `json:"remember"`
}

// GenerateMarker creates a signed marker for user valid for ttl.
func GenerateMarker(user string, remember bool, ttl time.Duration, secret string) (string, error) {
	now := time.Now()
	claims := MarkerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Remember: remember,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign session marker: %w", err)
	}
	return signed, nil
}

// ParseMarker validates and parses a marker, returning the claims.
func ParseMarker(tokenStr string, secret string) (*MarkerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &MarkerClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*MarkerClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid marker claims")
	}
	return claims, nil
}
