package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrPermissionNotFound = dao.ErrPermissionNotFound

type PermissionDAO interface {
	Insert(ctx context.Context, permission dao.Permission) (dao.Permission, error)
	FindByID(ctx context.Context, id uint) (dao.Permission, error)
	FindAll(ctx context.Context, status string) ([]dao.Permission, error)
	FindByUserID(ctx context.Context, userID uint) ([]dao.Permission, error)
	FindByUserIDAndStatuses(ctx context.Context, userID uint, statuses []string) ([]dao.Permission, error)
	FindApprovedCovering(ctx context.Context, day time.Time) ([]dao.Permission, error)
	UpdateReview(ctx context.Context, id uint, status, reviewedBy string, reviewedAt time.Time) (dao.Permission, error)
	Delete(ctx context.Context, id uint) error
}

type PermissionRepository struct {
	dao PermissionDAO
}

func NewPermissionRepository(dao PermissionDAO) *PermissionRepository {
	return &PermissionRepository{
		dao: dao,
	}
}

func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) (domain.Permission, error) {
	created, err := r.dao.Insert(ctx, dao.Permission{
		UserID:    permission.UserID,
		StartDate: permission.StartDate.Time,
		EndDate:   permission.EndDate.Time,
		Reason:    permission.Reason,
		Details:   permission.Details,
		Status:    string(permission.Status),
	})
	if err != nil {
		return domain.Permission{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, id uint) (domain.Permission, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *PermissionRepository) FindAll(ctx context.Context, status domain.PermissionStatus) ([]domain.Permission, error) {
	found, err := r.dao.FindAll(ctx, string(status))
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *PermissionRepository) FindByUserID(ctx context.Context, userID uint) ([]domain.Permission, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *PermissionRepository) FindByUserIDAndStatuses(ctx context.Context, userID uint, statuses ...domain.PermissionStatus) ([]domain.Permission, error) {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}

	found, err := r.dao.FindByUserIDAndStatuses(ctx, userID, raw)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindByUserIDAndStatuses -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *PermissionRepository) FindApprovedCovering(ctx context.Context, day domain.Date) ([]domain.Permission, error) {
	found, err := r.dao.FindApprovedCovering(ctx, day.Time)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindApprovedCovering -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *PermissionRepository) UpdateReview(ctx context.Context, id uint, status domain.PermissionStatus, reviewedBy string, reviewedAt time.Time) (domain.Permission, error) {
	updated, err := r.dao.UpdateReview(ctx, id, string(status), reviewedBy, reviewedAt)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("r.dao.UpdateReview -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *PermissionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *PermissionRepository) daoToDomain(p dao.Permission) domain.Permission {
	return domain.Permission{
		ID:         p.ID,
		UserID:     p.UserID,
		UserName:   p.UserName,
		StartDate:  domain.DateOf(p.StartDate),
		EndDate:    domain.DateOf(p.EndDate),
		Reason:     p.Reason,
		Details:    p.Details,
		Status:     domain.PermissionStatus(p.Status),
		ReviewedBy: p.ReviewedBy,
		ReviewedAt: p.ReviewedAt,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func (r *PermissionRepository) daosToDomain(permissions []dao.Permission) []domain.Permission {
	domainPermissions := make([]domain.Permission, len(permissions))
	for i, p := range permissions {
		domainPermissions[i] = r.daoToDomain(p)
	}
	return domainPermissions
}
