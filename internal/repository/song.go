package repository

import (
	"context"
	"fmt"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrSongNotFound = dao.ErrSongNotFound

type SongDAO interface {
	Insert(ctx context.Context, song dao.Song) (dao.Song, error)
	FindByID(ctx context.Context, id uint) (dao.Song, error)
	Find(ctx context.Context, query, category string) ([]dao.Song, error)
	Update(ctx context.Context, song dao.Song) (dao.Song, error)
	Delete(ctx context.Context, id uint) error
}

type SongRepository struct {
	dao SongDAO
}

func NewSongRepository(dao SongDAO) *SongRepository {
	return &SongRepository{
		dao: dao,
	}
}

func (r *SongRepository) Create(ctx context.Context, song domain.Song) (domain.Song, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(song))
	if err != nil {
		return domain.Song{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *SongRepository) FindByID(ctx context.Context, id uint) (domain.Song, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Song{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *SongRepository) Find(ctx context.Context, filter domain.SongFilter) ([]domain.Song, error) {
	found, err := r.dao.Find(ctx, filter.Query, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("r.dao.Find -> %w", err)
	}

	songs := make([]domain.Song, len(found))
	for i, s := range found {
		songs[i] = r.daoToDomain(s)
	}

	return songs, nil
}

func (r *SongRepository) Update(ctx context.Context, song domain.Song) (domain.Song, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(song))
	if err != nil {
		return domain.Song{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *SongRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *SongRepository) domainToDao(s domain.Song) dao.Song {
	return dao.Song{
		ID:        s.ID,
		Title:     s.Title,
		Composer:  s.Composer,
		Category:  s.Category,
		Key:       s.Key,
		Lyrics:    s.Lyrics,
		SheetURL:  s.SheetURL,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (r *SongRepository) daoToDomain(s dao.Song) domain.Song {
	return domain.Song{
		ID:        s.ID,
		Title:     s.Title,
		Composer:  s.Composer,
		Category:  s.Category,
		Key:       s.Key,
		Lyrics:    s.Lyrics,
		SheetURL:  s.SheetURL,
		CreatedBy: s.CreatedBy,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
