package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = errors.New("wrong password")
	ErrAccountPending  = errors.New("account is waiting for approval")
	ErrAccountRejected = errors.New("account registration was rejected")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

// Signup registers a Member account that stays pending until an approver
// accepts it.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = hash
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Role = domain.RoleMember
	user.Status = domain.UserStatusPending

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	switch user.Status {
	case domain.UserStatusPending:
		return domain.User{}, ErrAccountPending
	case domain.UserStatusRejected:
		return domain.User{}, ErrAccountRejected
	}

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
