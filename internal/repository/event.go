package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrEventNotFound = dao.ErrEventNotFound

type EventDAO interface {
	Insert(ctx context.Context, event dao.Event) (dao.Event, error)
	FindByID(ctx context.Context, id uint) (dao.Event, error)
	FindAll(ctx context.Context) ([]dao.Event, error)
	FindOnOrBefore(ctx context.Context, day time.Time) ([]dao.Event, error)
	Update(ctx context.Context, event dao.Event) (dao.Event, error)
	Delete(ctx context.Context, id uint) error
}

type EventRepository struct {
	dao EventDAO
}

func NewEventRepository(dao EventDAO) *EventRepository {
	return &EventRepository{
		dao: dao,
	}
}

func (r *EventRepository) Create(ctx context.Context, event domain.Event) (domain.Event, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *EventRepository) FindByID(ctx context.Context, id uint) (domain.Event, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *EventRepository) FindAll(ctx context.Context) ([]domain.Event, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *EventRepository) FindOnOrBefore(ctx context.Context, day domain.Date) ([]domain.Event, error) {
	found, err := r.dao.FindOnOrBefore(ctx, day.Time)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindOnOrBefore -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) (domain.Event, error) {
	updated, err := r.dao.Update(ctx, r.domainToDao(event))
	if err != nil {
		return domain.Event{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *EventRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *EventRepository) domainToDao(e domain.Event) dao.Event {
	return dao.Event{
		ID:          e.ID,
		Name:        e.Name,
		Type:        string(e.Type),
		Date:        e.Date.Time,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Description: e.Description,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *EventRepository) daoToDomain(e dao.Event) domain.Event {
	return domain.Event{
		ID:          e.ID,
		Name:        e.Name,
		Type:        domain.EventType(e.Type),
		Date:        domain.DateOf(e.Date),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Description: e.Description,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *EventRepository) daosToDomain(events []dao.Event) []domain.Event {
	domainEvents := make([]domain.Event, len(events))
	for i, e := range events {
		domainEvents[i] = r.daoToDomain(e)
	}
	return domainEvents
}
