package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrUserNotFound      = repository.ErrUserNotFound
	ErrForbidden         = errors.New("you are not allowed to perform this action")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidUserStatus = errors.New("invalid user status")
	ErrSelfAction        = errors.New("this action cannot be applied to your own account")
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindAll(ctx context.Context, status domain.UserStatus) ([]domain.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	UpdateStatus(ctx context.Context, id uint, status domain.UserStatus) (domain.User, error)
	UpdateRole(ctx context.Context, id uint, role domain.Role) (domain.User, error)
	Delete(ctx context.Context, id uint) error
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

// ListUsers returns every user, or only those with status when it is set.
func (s *UserService) ListUsers(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidUserStatus
	}

	users, err := s.repo.FindAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return users, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor domain.User, update domain.ProfileUpdate) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if update.Name != nil {
		user.Name = strings.TrimSpace(*update.Name)
	}
	if update.Phone != nil {
		user.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.VoicePart != nil {
		user.VoicePart = *update.VoicePart
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *UserService) ApproveUser(ctx context.Context, actor domain.User, id uint) (domain.User, error) {
	return s.setStatus(ctx, actor, id, domain.UserStatusApproved)
}

func (s *UserService) RejectUser(ctx context.Context, actor domain.User, id uint) (domain.User, error) {
	return s.setStatus(ctx, actor, id, domain.UserStatusRejected)
}

func (s *UserService) setStatus(ctx context.Context, actor domain.User, id uint, status domain.UserStatus) (domain.User, error) {
	if !actor.Role.CanApproveMembers() {
		return domain.User{}, ErrForbidden
	}
	if actor.ID == id {
		return domain.User{}, ErrSelfAction
	}

	user, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateStatus -> %w", err)
	}

	zap.L().Info("user status changed",
		zap.Uint("user_id", id),
		zap.String("status", string(status)),
		zap.Uint("by", actor.ID),
	)

	return user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, actor domain.User, id uint, role domain.Role) (domain.User, error) {
	if !role.Valid() {
		return domain.User{}, ErrInvalidRole
	}
	if !actor.Role.CanApproveMembers() {
		return domain.User{}, ErrForbidden
	}
	if actor.ID == id {
		return domain.User{}, ErrSelfAction
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.UpdateRole -> %w", err)
	}

	return user, nil
}

// DeleteUser removes the account. Attendance buckets and payment ledgers are
// kept so history stays intact.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.User, id uint) error {
	if actor.ID == id {
		return ErrSelfAction
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// EnsureAdmin creates an approved Admin account unless one with the same
// email already exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (domain.User, bool, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return domain.User{}, false, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return domain.User{}, false, err
	}

	created, err := s.repo.Create(ctx, domain.User{
		Email:    email,
		Password: hashed,
		Name:     name,
		Role:     domain.RoleAdmin,
		Status:   domain.UserStatusApproved,
	})
	if err != nil {
		return domain.User{}, false, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, true, nil
}
