package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrPermissionNotFound      = repository.ErrPermissionNotFound
	ErrInvalidDateRange        = errors.New("end date must not be before start date")
	ErrOverlappingPermission   = errors.New("permission overlaps an existing request")
	ErrInvalidPermissionStatus = errors.New("permission status must be approved or rejected")
	ErrReasonRequired          = errors.New("reason is required")
)

type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) (domain.Permission, error)
	FindByID(ctx context.Context, id uint) (domain.Permission, error)
	FindAll(ctx context.Context, status domain.PermissionStatus) ([]domain.Permission, error)
	FindByUserID(ctx context.Context, userID uint) ([]domain.Permission, error)
	FindByUserIDAndStatuses(ctx context.Context, userID uint, statuses ...domain.PermissionStatus) ([]domain.Permission, error)
	FindApprovedCovering(ctx context.Context, day domain.Date) ([]domain.Permission, error)
	UpdateReview(ctx context.Context, id uint, status domain.PermissionStatus, reviewedBy string, reviewedAt time.Time) (domain.Permission, error)
	Delete(ctx context.Context, id uint) error
}

type PermissionService struct {
	repo PermissionRepository
	now  func() time.Time
}

func NewPermissionService(repo PermissionRepository) *PermissionService {
	return &PermissionService{
		repo: repo,
		now:  time.Now,
	}
}

// CreatePermission files a pending absence request for the actor.
func (s *PermissionService) CreatePermission(ctx context.Context, actor domain.User, permission domain.Permission) (domain.Permission, error) {
	permission.Reason = strings.TrimSpace(permission.Reason)
	if permission.Reason == "" {
		return domain.Permission{}, ErrReasonRequired
	}
	if permission.EndDate.BeforeDate(permission.StartDate) {
		return domain.Permission{}, ErrInvalidDateRange
	}

	open, err := s.repo.FindByUserIDAndStatuses(ctx, actor.ID, domain.PermissionPending, domain.PermissionApproved)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("s.repo.FindByUserIDAndStatuses -> %w", err)
	}
	for _, p := range open {
		if p.Overlaps(permission.StartDate, permission.EndDate) {
			return domain.Permission{}, fmt.Errorf("%w (#%d %s..%s)", ErrOverlappingPermission, p.ID, p.StartDate, p.EndDate)
		}
	}

	permission.ID = 0
	permission.UserID = actor.ID
	permission.Status = domain.PermissionPending
	permission.ReviewedBy = ""
	permission.ReviewedAt = nil

	created, err := s.repo.Create(ctx, permission)
	if err != nil {
		return domain.Permission{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *PermissionService) GetAllPermissions(ctx context.Context, status domain.PermissionStatus) ([]domain.Permission, error) {
	switch status {
	case "", domain.PermissionPending, domain.PermissionApproved, domain.PermissionRejected:
	default:
		return nil, ErrInvalidPermissionStatus
	}

	permissions, err := s.repo.FindAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return permissions, nil
}

func (s *PermissionService) GetUserPermissions(ctx context.Context, actor domain.User) ([]domain.Permission, error) {
	permissions, err := s.repo.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	return permissions, nil
}

// UpdatePermissionStatus records a review. Only approved and rejected are
// accepted; the reviewer's name and the time are stamped on the request.
func (s *PermissionService) UpdatePermissionStatus(
	ctx context.Context, actor domain.User, id uint, status domain.PermissionStatus,
) (domain.Permission, error) {
	if !status.IsReviewOutcome() {
		return domain.Permission{}, ErrInvalidPermissionStatus
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return domain.Permission{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	reviewed, err := s.repo.UpdateReview(ctx, id, status, actor.Name, s.now().UTC())
	if err != nil {
		return domain.Permission{}, fmt.Errorf("s.repo.UpdateReview -> %w", err)
	}

	return reviewed, nil
}

// GetActivePermissionsForDate lists approved permissions covering day.
func (s *PermissionService) GetActivePermissionsForDate(ctx context.Context, day domain.Date) ([]domain.ActivePermission, error) {
	permissions, err := s.repo.FindApprovedCovering(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindApprovedCovering -> %w", err)
	}

	active := make([]domain.ActivePermission, 0, len(permissions))
	for _, p := range permissions {
		if !p.Covers(day) {
			continue
		}
		active = append(active, domain.ActivePermission{
			UserID:    p.UserID,
			UserName:  p.UserName,
			StartDate: p.StartDate,
			EndDate:   p.EndDate,
			Reason:    p.Reason,
			Details:   p.Details,
		})
	}

	return active, nil
}

// DeletePermission lets owners withdraw a pending request. Admin-tier roles
// may delete any request.
func (s *PermissionService) DeletePermission(ctx context.Context, actor domain.User, id uint) error {
	permission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	owner := permission.UserID == actor.ID && permission.Status == domain.PermissionPending
	if !owner && !actor.Role.IsAdminTier() {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
