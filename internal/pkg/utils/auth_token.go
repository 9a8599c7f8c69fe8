package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/ougirez/sisagua/internal/pkg/constants"
)

const RoleAdmin = "admin"

type AuthTokenWrapper struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

func GenerateAuthToken(wrapper *AuthTokenWrapper, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("empty secret key")
	}

	now := time.Now()
	wrapper.IssuedAt = now.Unix()
	if ttl != 0 {
		wrapper.ExpiresAt = now.Add(ttl).Unix()
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wrapper).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("SignedString: %w", err)
	}

	return token, nil
}

func ParseAuthToken(tokenStr string, secret string) (*AuthTokenWrapper, error) {
	if secret == "" {
		return nil, constants.ErrUnauthorized
	}

	var wrapper AuthTokenWrapper
	token, err := jwt.ParseWithClaims(tokenStr, &wrapper, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, constants.ErrUnauthorized
	}

	return &wrapper, nil
}
