package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrAttendanceNotFound = dao.ErrAttendanceNotFound

type AttendanceDAO interface {
	WithTx(ctx context.Context, fn func(tx *dao.AttendanceDAO) error) error
	FindAll(ctx context.Context) ([]dao.Attendance, error)
	FindByUserID(ctx context.Context, userID uint) (dao.Attendance, error)
	IsEventReferenced(ctx context.Context, eventID uint) (bool, error)
}

type AttendanceRepository struct {
	dao AttendanceDAO
}

func NewAttendanceRepository(dao AttendanceDAO) *AttendanceRepository {
	return &AttendanceRepository{
		dao: dao,
	}
}

func (r *AttendanceRepository) FindAll(ctx context.Context) ([]domain.AttendanceBucket, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	buckets := make([]domain.AttendanceBucket, len(found))
	for i, b := range found {
		buckets[i] = r.daoToDomain(b)
	}

	return buckets, nil
}

func (r *AttendanceRepository) FindByUserID(ctx context.Context, userID uint) (domain.AttendanceBucket, error) {
	found, err := r.dao.FindByUserID(ctx, userID)
	if err != nil {
		return domain.AttendanceBucket{}, fmt.Errorf("r.dao.FindByUserID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// UpsertRecords writes every entry in one transaction: either all buckets
// are updated or none are. It returns the number of buckets written.
func (r *AttendanceRepository) UpsertRecords(ctx context.Context, entries []domain.AttendanceUpsert) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	userIDs := make([]uint, 0, len(entries))
	empty := make([]dao.Attendance, 0, len(entries))
	for _, e := range entries {
		userIDs = append(userIDs, e.UserID)
		empty = append(empty, dao.Attendance{UserID: e.UserID, Name: e.Name})
	}

	written := 0
	err := r.dao.WithTx(ctx, func(tx *dao.AttendanceDAO) error {
		if err := tx.EnsureBuckets(ctx, empty); err != nil {
			return fmt.Errorf("tx.EnsureBuckets -> %w", err)
		}

		locked, err := tx.LockByUserIDs(ctx, userIDs)
		if err != nil {
			return fmt.Errorf("tx.LockByUserIDs -> %w", err)
		}
		byUser := make(map[uint]dao.Attendance, len(locked))
		for _, b := range locked {
			byUser[b.UserID] = b
		}

		for _, e := range entries {
			row, ok := byUser[e.UserID]
			if !ok {
				return fmt.Errorf("bucket for user %d missing after ensure: %w", e.UserID, ErrAttendanceNotFound)
			}

			bucket := r.daoToDomain(row)
			bucket.Name = e.Name
			bucket.Upsert(e.Record)

			row.Name = bucket.Name
			row.Records = r.recordsToDao(bucket.Records)
			if _, err := tx.Save(ctx, row); err != nil {
				return fmt.Errorf("tx.Save user %d -> %w", e.UserID, err)
			}
			written++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("r.dao.WithTx -> %w", err)
	}

	return written, nil
}

func (r *AttendanceRepository) IsEventReferenced(ctx context.Context, eventID uint) (bool, error) {
	referenced, err := r.dao.IsEventReferenced(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("r.dao.IsEventReferenced -> %w", err)
	}

	return referenced, nil
}

func (r *AttendanceRepository) daoToDomain(b dao.Attendance) domain.AttendanceBucket {
	records := make([]domain.AttendanceRecord, 0, len(b.Records))
	for _, rec := range b.Records {
		// an unparsable snapshot date keeps the record with a zero date
		day, _ := domain.ParseDate(rec.Date)
		records = append(records, domain.AttendanceRecord{
			EventID: rec.EventID,
			EventSnapshot: domain.EventSnapshot{
				Name: rec.Event,
				Date: day,
			},
			Status: domain.Status(rec.Status),
		})
	}

	return domain.AttendanceBucket{
		UserID:  b.UserID,
		Name:    b.Name,
		Records: records,
	}
}

func (r *AttendanceRepository) recordsToDao(records []domain.AttendanceRecord) datatypes.JSONSlice[dao.AttendanceRecord] {
	out := make(datatypes.JSONSlice[dao.AttendanceRecord], len(records))
	for i, rec := range records {
		out[i] = dao.AttendanceRecord{
			EventID: rec.EventID,
			Event:   rec.Name,
			Date:    rec.Date.String(),
			Status:  string(rec.Status),
		}
	}
	return out
}
