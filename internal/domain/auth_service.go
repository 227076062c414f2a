package domain

import (
	"context"
	"errors"
	"time"

	"github.com/abakusuz/paybot/internal/ports"
	"github.com/golang-jwt/jwt/v5"
)

type authService struct {
	password string
	secret   string
}

// NewAuthService guards the admin panel. The Telegram Login Widget check is
// an external concern; the panel authenticates with a shared password and a
// signed session token.
func NewAuthService(password, secret string) ports.AuthService {
	return &authService{
		password: password,
		secret:   secret,
	}
}

func (s *authService) Login(ctx context.Context, password string) (string, error) {
	if s.password == "" || password != s.password {
		return "", errors.New("invalid password")
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(30 * 24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func (s *authService) ValidateToken(ctx context.Context, tokenStr string) (bool, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return false, nil
	}
	return token.Valid, nil
}
