package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrAnnouncementNotFound = repository.ErrAnnouncementNotFound
	ErrInvalidTimeWindow    = errors.New("end time must be after start time")
)

type AnnouncementRepository interface {
	Create(ctx context.Context, a domain.Announcement) (domain.Announcement, error)
	FindByID(ctx context.Context, id uint) (domain.Announcement, error)
	FindAll(ctx context.Context) ([]domain.Announcement, error)
	Update(ctx context.Context, a domain.Announcement) (domain.Announcement, error)
	Delete(ctx context.Context, id uint) error
}

type AnnouncementService struct {
	repo     AnnouncementRepository
	notifier Notifier
	now      func() time.Time
}

func NewAnnouncementService(repo AnnouncementRepository, notifier Notifier) *AnnouncementService {
	return &AnnouncementService{
		repo:     repo,
		notifier: notifierOrNop(notifier),
		now:      time.Now,
	}
}

func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, actor domain.User, a domain.Announcement) (domain.AnnouncementView, error) {
	if err := validateWindow(a); err != nil {
		return domain.AnnouncementView{}, err
	}
	a.CreatedBy = actor.ID

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return domain.AnnouncementView{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	view := s.view(created)
	if view.Phase == domain.PhaseActive {
		s.notifier.Notify(NoticeAnnouncementCreated, view)
	} else {
		s.notifier.Notify(NoticeAnnouncementInactive, view)
	}

	return view, nil
}

func (s *AnnouncementService) UpdateAnnouncement(ctx context.Context, id uint, a domain.Announcement) (domain.AnnouncementView, error) {
	if err := validateWindow(a); err != nil {
		return domain.AnnouncementView{}, err
	}
	a.ID = id

	updated, err := s.repo.Update(ctx, a)
	if err != nil {
		return domain.AnnouncementView{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return s.view(updated), nil
}

func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// GetAnnouncement hides announcements outside their window from members.
func (s *AnnouncementService) GetAnnouncement(ctx context.Context, actor domain.User, id uint) (domain.AnnouncementView, error) {
	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.AnnouncementView{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	view := s.view(found)
	if view.Phase != domain.PhaseActive && !actor.Role.IsAdminTier() {
		return domain.AnnouncementView{}, ErrAnnouncementNotFound
	}

	return view, nil
}

// ListAnnouncements returns active announcements to members and everything
// to admin-tier roles.
func (s *AnnouncementService) ListAnnouncements(ctx context.Context, actor domain.User) ([]domain.AnnouncementView, error) {
	found, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	views := make([]domain.AnnouncementView, 0, len(found))
	for _, a := range found {
		view := s.view(a)
		if view.Phase != domain.PhaseActive && !actor.Role.IsAdminTier() {
			continue
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *AnnouncementService) view(a domain.Announcement) domain.AnnouncementView {
	return domain.AnnouncementView{Announcement: a, Phase: a.Phase(s.now())}
}

func validateWindow(a domain.Announcement) error {
	if a.StartTime != nil && a.EndTime != nil && !a.EndTime.After(*a.StartTime) {
		return ErrInvalidTimeWindow
	}
	return nil
}
