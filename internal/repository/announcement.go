package repository

import (
	"context"
	"fmt"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrAnnouncementNotFound = dao.ErrAnnouncementNotFound

type AnnouncementDAO interface {
	Insert(ctx context.Context, announcement dao.Announcement) (dao.Announcement, error)
	FindByID(ctx context.Context, id uint) (dao.Announcement, error)
	FindAll(ctx context.Context) ([]dao.Announcement, error)
	Update(ctx context.Context, announcement dao.Announcement) (dao.Announcement, error)
	Delete(ctx context.Context, id uint) error
}

type AnnouncementRepository struct {
	dao AnnouncementDAO
}

func NewAnnouncementRepository(dao AnnouncementDAO) *AnnouncementRepository {
	return &AnnouncementRepository{
		dao: dao,
	}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a domain.Announcement) (domain.Announcement, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(a))
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *AnnouncementRepository) FindByID(ctx context.Context, id uint) (domain.Announcement, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *AnnouncementRepository) FindAll(ctx context.Context) ([]domain.Announcement, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	announcements := make([]domain.Announcement, len(found))
	for i, a := range found {
		announcements[i] = r.daoToDomain(a)
	}

	return announcements, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, a domain.Announcement) (domain.Announcement, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(a))
	if err != nil {
		return domain.Announcement{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *AnnouncementRepository) domainToDao(a domain.Announcement) dao.Announcement {
	return dao.Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (r *AnnouncementRepository) daoToDomain(a dao.Announcement) domain.Announcement {
	return domain.Announcement{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
