package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrPermissionNotFound = errors.New("permission not found")

type Permission struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      `gorm:"not null;index"`
	UserName   string    `gorm:"->;-:migration"` // joined from users
	StartDate  time.Time `gorm:"type:date;not null;index"`
	EndDate    time.Time `gorm:"type:date;not null;index"`
	Reason     string    `gorm:"not null"`
	Details    string
	Status     string `gorm:"not null;default:pending;index"` // "pending", "approved" or "rejected"
	ReviewedBy string
	ReviewedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PermissionDAO struct {
	db *gorm.DB
}

func NewPermissionDAO(db *gorm.DB) *PermissionDAO {
	return &PermissionDAO{
		db: db,
	}
}

func (d *PermissionDAO) withUserName(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).
		Model(&Permission{}).
		Select("permissions.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = permissions.user_id")
}

func (d *PermissionDAO) Insert(ctx context.Context, permission Permission) (Permission, error) {
	if result := d.db.WithContext(ctx).Create(&permission); result.Error != nil {
		return Permission{}, result.Error
	}

	return d.FindByID(ctx, permission.ID)
}

func (d *PermissionDAO) FindByID(ctx context.Context, id uint) (Permission, error) {
	var permission Permission

	result := d.withUserName(ctx).Where("permissions.id = ?", id).First(&permission)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Permission{}, ErrPermissionNotFound
		}

		return Permission{}, result.Error
	}

	return permission, nil
}

func (d *PermissionDAO) FindAll(ctx context.Context, status string) ([]Permission, error) {
	var permissions []Permission

	query := d.withUserName(ctx).Order("permissions.created_at DESC")
	if status != "" {
		query = query.Where("permissions.status = ?", status)
	}
	if result := query.Find(&permissions); result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

func (d *PermissionDAO) FindByUserID(ctx context.Context, userID uint) ([]Permission, error) {
	var permissions []Permission

	result := d.withUserName(ctx).
		Where("permissions.user_id = ?", userID).
		Order("permissions.start_date DESC").
		Find(&permissions)
	if result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

// FindByUserIDAndStatuses is used for overlap checks.
func (d *PermissionDAO) FindByUserIDAndStatuses(ctx context.Context, userID uint, statuses []string) ([]Permission, error) {
	var permissions []Permission

	result := d.withUserName(ctx).
		Where("permissions.user_id = ? AND permissions.status IN ?", userID, statuses).
		Find(&permissions)
	if result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

// FindApprovedCovering returns approved permissions whose range contains day.
func (d *PermissionDAO) FindApprovedCovering(ctx context.Context, day time.Time) ([]Permission, error) {
	var permissions []Permission

	result := d.withUserName(ctx).
		Where("permissions.status = ?", "approved").
		Where("permissions.start_date <= ? AND permissions.end_date >= ?", day.Format(dateLayout), day.Format(dateLayout)).
		Order("users.name ASC").
		Find(&permissions)
	if result.Error != nil {
		return nil, result.Error
	}

	return permissions, nil
}

func (d *PermissionDAO) UpdateReview(ctx context.Context, id uint, status, reviewedBy string, reviewedAt time.Time) (Permission, error) {
	result := d.db.WithContext(ctx).Model(&Permission{ID: id}).Updates(map[string]interface{}{
		"status":      status,
		"reviewed_by": reviewedBy,
		"reviewed_at": reviewedAt,
	})
	if result.Error != nil {
		return Permission{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Permission{}, ErrPermissionNotFound
	}

	return d.FindByID(ctx, id)
}

func (d *PermissionDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Permission{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPermissionNotFound
	}

	return nil
}
