package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAttendanceNotFound = errors.New("attendance not found")

// AttendanceRecord is one element of the records document. Event name and
// date are copies taken when the record was written.
type AttendanceRecord struct {
	EventID uint   `json:"eventId"`
	Event   string `json:"event"`
	Date    string `json:"date"`
	Status  string `json:"status"`
}

// Attendance is the per-user bucket. The records are kept as a single jsonb
// array so a user's whole history is read and written as one document.
type Attendance struct {
	ID        uint                                  `gorm:"primaryKey"`
	UserID    uint                                  `gorm:"uniqueIndex;not null"`
	Name      string                                `gorm:"not null"`
	Records   datatypes.JSONSlice[AttendanceRecord] `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type AttendanceDAO struct {
	db *gorm.DB
}

func NewAttendanceDAO(db *gorm.DB) *AttendanceDAO {
	return &AttendanceDAO{
		db: db,
	}
}

// WithTx runs fn against a DAO bound to a single transaction.
func (d *AttendanceDAO) WithTx(ctx context.Context, fn func(tx *AttendanceDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AttendanceDAO{db: tx})
	})
}

func (d *AttendanceDAO) FindAll(ctx context.Context) ([]Attendance, error) {
	var buckets []Attendance

	if result := d.db.WithContext(ctx).Order("user_id ASC").Find(&buckets); result.Error != nil {
		return nil, result.Error
	}

	return buckets, nil
}

func (d *AttendanceDAO) FindByUserID(ctx context.Context, userID uint) (Attendance, error) {
	var bucket Attendance

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&bucket)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Attendance{}, ErrAttendanceNotFound
		}

		return Attendance{}, result.Error
	}

	return bucket, nil
}

// EnsureBuckets creates empty buckets for users that have none yet. Existing
// buckets are left untouched.
func (d *AttendanceDAO) EnsureBuckets(ctx context.Context, buckets []Attendance) error {
	if len(buckets) == 0 {
		return nil
	}
	for i := range buckets {
		if buckets[i].Records == nil {
			buckets[i].Records = datatypes.JSONSlice[AttendanceRecord]{}
		}
	}

	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&buckets).Error
}

// LockByUserIDs selects buckets FOR UPDATE, ordered by user id so concurrent
// savers always lock rows in the same order.
func (d *AttendanceDAO) LockByUserIDs(ctx context.Context, userIDs []uint) ([]Attendance, error) {
	var buckets []Attendance
	if len(userIDs) == 0 {
		return buckets, nil
	}

	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id IN ?", userIDs).
		Order("user_id ASC").
		Find(&buckets)
	if result.Error != nil {
		return nil, result.Error
	}

	return buckets, nil
}

func (d *AttendanceDAO) Save(ctx context.Context, bucket Attendance) (Attendance, error) {
	if result := d.db.WithContext(ctx).Save(&bucket); result.Error != nil {
		return Attendance{}, result.Error
	}

	return bucket, nil
}

// IsEventReferenced reports whether any bucket holds a record for eventID.
func (d *AttendanceDAO) IsEventReferenced(ctx context.Context, eventID uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).
		Model(&Attendance{}).
		Where("records @> ?::jsonb", fmt.Sprintf(`[{"eventId":%d}]`, eventID)).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
