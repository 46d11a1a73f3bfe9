package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrSongNotFound        = repository.ErrSongNotFound
	ErrInvalidSongCategory = errors.New("unknown song category")
)

type SongRepository interface {
	Create(ctx context.Context, song domain.Song) (domain.Song, error)
	FindByID(ctx context.Context, id uint) (domain.Song, error)
	Find(ctx context.Context, filter domain.SongFilter) ([]domain.Song, error)
	Update(ctx context.Context, song domain.Song) (domain.Song, error)
	Delete(ctx context.Context, id uint) error
}

type SongService struct {
	repo SongRepository
}

func NewSongService(repo SongRepository) *SongService {
	return &SongService{
		repo: repo,
	}
}

func (s *SongService) CreateSong(ctx context.Context, actor domain.User, song domain.Song) (domain.Song, error) {
	if err := normalizeSong(&song); err != nil {
		return domain.Song{}, err
	}
	song.CreatedBy = actor.ID

	created, err := s.repo.Create(ctx, song)
	if err != nil {
		return domain.Song{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *SongService) GetSong(ctx context.Context, id uint) (domain.Song, error) {
	song, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Song{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return song, nil
}

func (s *SongService) ListSongs(ctx context.Context, filter domain.SongFilter) ([]domain.Song, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Category != "" {
		category, ok := matchCategory(filter.Category)
		if !ok {
			return nil, ErrInvalidSongCategory
		}
		filter.Category = category
	}

	songs, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("s.repo.Find -> %w", err)
	}

	return songs, nil
}

func (s *SongService) UpdateSong(ctx context.Context, id uint, song domain.Song) (domain.Song, error) {
	if err := normalizeSong(&song); err != nil {
		return domain.Song{}, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Song{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}
	song.ID = id
	song.CreatedBy = existing.CreatedBy
	song.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Update(ctx, song)
	if err != nil {
		return domain.Song{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *SongService) DeleteSong(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func normalizeSong(song *domain.Song) error {
	song.Title = strings.TrimSpace(song.Title)
	song.Composer = strings.TrimSpace(song.Composer)

	category, ok := matchCategory(song.Category)
	if !ok {
		return ErrInvalidSongCategory
	}
	song.Category = category

	return nil
}

func matchCategory(category string) (string, bool) {
	for _, c := range domain.SongCategories {
		if strings.EqualFold(c, strings.TrimSpace(category)) {
			return c, true
		}
	}
	return "", false
}
