package usecase

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/phenrril/catering/internal/domain"
)

type AuthUC struct {
	Users domain.UserRepo
}

func (uc *AuthUC) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	u, err := uc.Users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.Identity{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	return u.Identity(), nil
}

// Resolve maps an externally verified email onto a known account.
func (uc *AuthUC) Resolve(ctx context.Context, email string) (domain.Identity, error) {
	u, err := uc.Users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
