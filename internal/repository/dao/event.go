package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

// dateLayout is used when binding calendar days against date columns so the
// session time zone never shifts the day.
const dateLayout = "2006-01-02"

type Event struct {
	ID          uint      `gorm:"primaryKey"`
	Name        string    `gorm:"not null"`
	Type        string    `gorm:"not null"` // "Practice" or "Service"
	Date        time.Time `gorm:"type:date;not null;index"`
	StartTime   string    `gorm:"size:5;not null"`
	EndTime     string    `gorm:"size:5"`
	Location    string
	Description string
	CreatedBy   uint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type EventDAO struct {
	db *gorm.DB
}

func NewEventDAO(db *gorm.DB) *EventDAO {
	return &EventDAO{
		db: db,
	}
}

func (d *EventDAO) Insert(ctx context.Context, event Event) (Event, error) {
	if result := d.db.WithContext(ctx).Create(&event); result.Error != nil {
		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindByID(ctx context.Context, id uint) (Event, error) {
	var event Event

	result := d.db.WithContext(ctx).First(&event, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Event{}, ErrEventNotFound
		}

		return Event{}, result.Error
	}

	return event, nil
}

func (d *EventDAO) FindAll(ctx context.Context) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Order("date ASC").Order("start_time ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

// FindOnOrBefore returns events dated on or before day, the only candidates
// for having ended.
func (d *EventDAO) FindOnOrBefore(ctx context.Context, day time.Time) ([]Event, error) {
	var events []Event

	result := d.db.WithContext(ctx).Where("date <= ?", day.Format(dateLayout)).Order("date ASC").Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}

	return events, nil
}

func (d *EventDAO) Update(ctx context.Context, event Event) (Event, error) {
	result := d.db.WithContext(ctx).Model(&Event{ID: event.ID}).Select(
		"Name", "Type", "Date", "StartTime", "EndTime", "Location", "Description",
	).Updates(&event)
	if result.Error != nil {
		return Event{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Event{}, ErrEventNotFound
	}

	return d.FindByID(ctx, event.ID)
}

func (d *EventDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Event{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
