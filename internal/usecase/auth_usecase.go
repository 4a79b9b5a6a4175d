package usecase

import (
	"context"
	"errors"
	"strings"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInternal            = errors.New("internal error")
)

type AuthUsecase interface {
	Login(ctx context.Context, email, password string) (access, refresh string, err error)
	Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error)
}

// Auth authenticates the single operator account against the configured
// bcrypt hash. There is no user table.
type Auth struct {
	admin config.AdminConfig
	jwt   jwt.Service
}

func NewAuthUsecase(admin config.AdminConfig, jwtSvc jwt.Service) *Auth {
	return &Auth{admin: admin, jwt: jwtSvc}
}

func (u *Auth) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", ErrUnauthorized
	}
	if email != strings.ToLower(strings.TrimSpace(u.admin.Email)) {
		// Burn a comparison anyway so a wrong email costs the same as a
		// wrong password.
		_ = bcrypt.CompareHashAndPassword([]byte(u.admin.PasswordHash), []byte(password))
		return "", "", ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.admin.PasswordHash), []byte(password)); err != nil {
		return "", "", ErrUnauthorized
	}

	access, err := u.jwt.GenerateAccessToken(email)
	if err != nil {
		return "", "", ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(email)
	if err != nil {
		return "", "", ErrInternal
	}
	return access, refresh, nil
}

func (u *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrUnauthorized
	}

	claims, err := u.jwt.ValidateToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrRefreshTokenExpired
		}
		return "", "", ErrInvalidRefreshToken
	}
	if !u.jwt.IsRefreshToken(claims) {
		return "", "", ErrInvalidRefreshToken
	}

	access, err := u.jwt.GenerateAccessToken(claims.Email)
	if err != nil {
		return "", "", ErrInternal
	}
	newRefresh, err := u.jwt.GenerateRefreshToken(claims.Email)
	if err != nil {
		return "", "", ErrInternal
	}
	return access, newRefresh, nil
}
