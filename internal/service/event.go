package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/metrics"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrEventNotFound    = repository.ErrEventNotFound
	ErrInvalidEventType = errors.New("event type must be Practice or Service")
	ErrInvalidEventTime = errors.New("event end time must be after its start time")
)

type EventRepository interface {
	Create(ctx context.Context, event domain.Event) (domain.Event, error)
	FindByID(ctx context.Context, id uint) (domain.Event, error)
	FindAll(ctx context.Context) ([]domain.Event, error)
	FindOnOrBefore(ctx context.Context, day domain.Date) ([]domain.Event, error)
	Update(ctx context.Context, event domain.Event) (domain.Event, error)
	Delete(ctx context.Context, id uint) error
}

// EventReferenceChecker tells whether any attendance bucket holds a record
// for an event.
type EventReferenceChecker interface {
	IsEventReferenced(ctx context.Context, eventID uint) (bool, error)
}

type EventService struct {
	repo     EventRepository
	refs     EventReferenceChecker
	notifier Notifier
	loc      *time.Location
	now      func() time.Time
}

// NewEventService creates the service. Event dates and times are read in
// loc, the choir's local time zone.
func NewEventService(repo EventRepository, refs EventReferenceChecker, notifier Notifier, loc *time.Location) *EventService {
	if loc == nil {
		loc = time.UTC
	}

	return &EventService{
		repo:     repo,
		refs:     refs,
		notifier: notifierOrNop(notifier),
		loc:      loc,
		now:      time.Now,
	}
}

func (s *EventService) CreateEvent(ctx context.Context, actor domain.User, event domain.Event) (domain.Event, error) {
	if err := validateEvent(&event); err != nil {
		return domain.Event{}, err
	}
	event.CreatedBy = actor.ID

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.notifier.Notify(NoticeEventCreated, created)

	return created, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (domain.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return event, nil
}

func (s *EventService) UpdateEvent(ctx context.Context, id uint, event domain.Event) (domain.Event, error) {
	if err := validateEvent(&event); err != nil {
		return domain.Event{}, err
	}
	event.ID = id

	updated, err := s.repo.Update(ctx, event)
	if err != nil {
		return domain.Event{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

// DeleteEvent removes the event. Attendance records keep their snapshot.
func (s *EventService) DeleteEvent(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

// ListUpcomingEvents sweeps ended events first and then returns the events
// that have not ended yet.
func (s *EventService) ListUpcomingEvents(ctx context.Context) ([]domain.Event, error) {
	if _, err := s.SweepPassedEvents(ctx); err != nil {
		zap.L().Warn("event sweep failed", zap.Error(err))
	}

	events, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	now := s.now()
	upcoming := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if !e.HasEnded(now, s.loc) {
			upcoming = append(upcoming, e)
		}
	}

	return upcoming, nil
}

// ListAllEvents includes ended events that were kept because attendance was
// recorded for them.
func (s *EventService) ListAllEvents(ctx context.Context) ([]domain.Event, error) {
	events, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return events, nil
}

// SweepPassedEvents deletes ended events that no attendance bucket references
// and returns how many were deleted. Events that fail to be checked or
// deleted are skipped.
func (s *EventService) SweepPassedEvents(ctx context.Context) (int, error) {
	now := s.now()
	today := domain.DateOf(now.In(s.loc))

	candidates, err := s.repo.FindOnOrBefore(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindOnOrBefore -> %w", err)
	}

	deleted := 0
	for _, e := range candidates {
		if !e.HasEnded(now, s.loc) {
			continue
		}

		referenced, err := s.refs.IsEventReferenced(ctx, e.ID)
		if err != nil {
			zap.L().Warn("event sweep: reference check failed", zap.Uint("event_id", e.ID), zap.Error(err))
			continue
		}
		if referenced {
			continue
		}

		if err := s.repo.Delete(ctx, e.ID); err != nil {
			if !errors.Is(err, repository.ErrEventNotFound) {
				zap.L().Warn("event sweep: delete failed", zap.Uint("event_id", e.ID), zap.Error(err))
			}
			continue
		}
		deleted++
	}

	if deleted > 0 {
		metrics.EventsSwept.Add(float64(deleted))
		zap.L().Info("ended events removed", zap.Int("count", deleted))
	}

	return deleted, nil
}

func validateEvent(event *domain.Event) error {
	event.Name = strings.TrimSpace(event.Name)
	if !event.Type.Valid() {
		return ErrInvalidEventType
	}

	startH, startM, err := domain.ParseClock(event.StartTime)
	if err != nil {
		return fmt.Errorf("start time: %w", ErrInvalidEventTime)
	}
	if event.EndTime == "" {
		return nil
	}

	endH, endM, err := domain.ParseClock(event.EndTime)
	if err != nil {
		return fmt.Errorf("end time: %w", ErrInvalidEventTime)
	}
	if endH*60+endM <= startH*60+startM {
		return ErrInvalidEventTime
	}

	return nil
}
