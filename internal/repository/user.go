package repository

import (
	"context"
	"fmt"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindAll(ctx context.Context, status string) ([]dao.User, error)
	FindByIDs(ctx context.Context, ids []uint) ([]dao.User, error)
	Update(ctx context.Context, user dao.User) (dao.User, error)
	UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) (dao.User, error)
	Delete(ctx context.Context, id uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindAll(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	found, err := r.dao.FindAll(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []uint) ([]domain.User, error) {
	found, err := r.dao.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByIDs -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id uint, status domain.UserStatus) (domain.User, error) {
	updated, err := r.dao.UpdateColumns(ctx, id, map[string]interface{}{"status": string(status)})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uint, role domain.Role) (domain.User, error) {
	updated, err := r.dao.UpdateColumns(ctx, id, map[string]interface{}{"role": string(role)})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.UpdateColumns -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *UserRepository) domainToDao(u domain.User) dao.User {
	return dao.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Name:      u.Name,
		Phone:     u.Phone,
		VoicePart: string(u.VoicePart),
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Name:      u.Name,
		Phone:     u.Phone,
		VoicePart: domain.VoicePart(u.VoicePart),
		Role:      domain.Role(u.Role),
		Status:    domain.UserStatus(u.Status),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) daosToDomain(users []dao.User) []domain.User {
	domainUsers := make([]domain.User, len(users))
	for i, u := range users {
		domainUsers[i] = r.daoToDomain(u)
	}
	return domainUsers
}
