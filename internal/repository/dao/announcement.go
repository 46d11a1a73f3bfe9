package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrAnnouncementNotFound = errors.New("announcement not found")

type Announcement struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"type:text;not null"`
	StartTime *time.Time
	EndTime   *time.Time
	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AnnouncementDAO struct {
	db *gorm.DB
}

func NewAnnouncementDAO(db *gorm.DB) *AnnouncementDAO {
	return &AnnouncementDAO{
		db: db,
	}
}

func (d *AnnouncementDAO) Insert(ctx context.Context, announcement Announcement) (Announcement, error) {
	if result := d.db.WithContext(ctx).Create(&announcement); result.Error != nil {
		return Announcement{}, result.Error
	}

	return announcement, nil
}

func (d *AnnouncementDAO) FindByID(ctx context.Context, id uint) (Announcement, error) {
	var announcement Announcement

	result := d.db.WithContext(ctx).First(&announcement, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Announcement{}, ErrAnnouncementNotFound
		}

		return Announcement{}, result.Error
	}

	return announcement, nil
}

func (d *AnnouncementDAO) FindAll(ctx context.Context) ([]Announcement, error) {
	var announcements []Announcement

	if result := d.db.WithContext(ctx).Order("created_at DESC").Find(&announcements); result.Error != nil {
		return nil, result.Error
	}

	return announcements, nil
}

// Update writes every editable column, including clearing the window.
func (d *AnnouncementDAO) Update(ctx context.Context, announcement Announcement) (Announcement, error) {
	result := d.db.WithContext(ctx).Model(&Announcement{ID: announcement.ID}).Select(
		"Title", "Content", "StartTime", "EndTime",
	).Updates(&announcement)
	if result.Error != nil {
		return Announcement{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Announcement{}, ErrAnnouncementNotFound
	}

	return d.FindByID(ctx, announcement.ID)
}

func (d *AnnouncementDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Announcement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}

	return nil
}
