package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/metrics"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrAttendanceNotFound = repository.ErrAttendanceNotFound
	ErrInvalidStatus      = errors.New("invalid attendance status")
)

type AttendanceRepository interface {
	FindAll(ctx context.Context) ([]domain.AttendanceBucket, error)
	FindByUserID(ctx context.Context, userID uint) (domain.AttendanceBucket, error)
	UpsertRecords(ctx context.Context, entries []domain.AttendanceUpsert) (int, error)
}

type AttendanceService struct {
	repo       AttendanceRepository
	userRepo   UserRepository
	eventRepo  EventRepository
	permitRepo PermissionRepository
	notifier   Notifier
}

func NewAttendanceService(
	repo AttendanceRepository,
	userRepo UserRepository,
	eventRepo EventRepository,
	permitRepo PermissionRepository,
	notifier Notifier,
) *AttendanceService {
	return &AttendanceService{
		repo:       repo,
		userRepo:   userRepo,
		eventRepo:  eventRepo,
		permitRepo: permitRepo,
		notifier:   notifierOrNop(notifier),
	}
}

// SaveAttendance records the effective status of every approved member for
// the event. Members with an approved permission covering the event date are
// Excused whatever was submitted, members without a mark are Absent. All
// buckets are written in one transaction.
func (s *AttendanceService) SaveAttendance(
	ctx context.Context, eventID uint, submitted map[uint]domain.Status,
) (domain.SaveAttendanceResult, error) {
	for userID, status := range submitted {
		if !status.Valid() {
			return domain.SaveAttendanceResult{}, fmt.Errorf("user %d: %q: %w", userID, status, ErrInvalidStatus)
		}
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return domain.SaveAttendanceResult{}, fmt.Errorf("s.eventRepo.FindByID -> %w", err)
	}

	roster, err := s.userRepo.FindAll(ctx, domain.UserStatusApproved)
	if err != nil {
		return domain.SaveAttendanceResult{}, fmt.Errorf("s.userRepo.FindAll -> %w", err)
	}

	permits, err := s.permitRepo.FindApprovedCovering(ctx, event.Date)
	if err != nil {
		return domain.SaveAttendanceResult{}, fmt.Errorf("s.permitRepo.FindApprovedCovering -> %w", err)
	}
	excused := make(map[uint]bool, len(permits))
	for _, p := range permits {
		if p.Status == domain.PermissionApproved && p.Covers(event.Date) {
			excused[p.UserID] = true
		}
	}

	snapshot := domain.SnapshotOf(event)
	entries := make([]domain.AttendanceUpsert, 0, len(roster))
	for _, user := range roster {
		var mark *domain.Status
		if status, ok := submitted[user.ID]; ok {
			mark = &status
		}

		status := domain.ResolveEffectiveStatus(mark, excused[user.ID])
		if excused[user.ID] {
			metrics.AttendanceExcusedByPermission.Inc()
		}

		entries = append(entries, domain.AttendanceUpsert{
			UserID: user.ID,
			Name:   user.Name,
			Record: domain.AttendanceRecord{
				EventID:       event.ID,
				EventSnapshot: snapshot,
				Status:        status,
			},
		})
	}

	written, err := s.repo.UpsertRecords(ctx, entries)
	if err != nil {
		metrics.AttendanceSaves.WithLabelValues("error").Inc()
		return domain.SaveAttendanceResult{}, fmt.Errorf("s.repo.UpsertRecords -> %w", err)
	}
	metrics.AttendanceSaves.WithLabelValues("ok").Inc()
	metrics.AttendanceRecordsWritten.Add(float64(written))

	zap.L().Info("attendance saved",
		zap.Uint("event_id", event.ID),
		zap.Int("updated", written),
		zap.Int("excused_by_permission", len(excused)),
	)
	s.notifier.Notify(NoticeAttendanceSaved, map[string]any{
		"eventId":      event.ID,
		"event":        event.Name,
		"updatedCount": written,
	})

	return domain.SaveAttendanceResult{
		Message:      "Attendance saved successfully",
		UpdatedCount: written,
	}, nil
}

// GetAttendanceByEvent maps user id to status for one event. Only currently
// approved users are included.
func (s *AttendanceService) GetAttendanceByEvent(ctx context.Context, eventID uint) (map[uint]domain.Status, error) {
	buckets, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	approved, err := s.userRepo.FindAll(ctx, domain.UserStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindAll -> %w", err)
	}
	isApproved := make(map[uint]bool, len(approved))
	for _, u := range approved {
		isApproved[u.ID] = true
	}

	statuses := make(map[uint]domain.Status)
	for _, b := range buckets {
		if !isApproved[b.UserID] {
			continue
		}
		if rec, ok := b.Record(eventID); ok {
			statuses[b.UserID] = rec.Status
		}
	}

	return statuses, nil
}

// GetAllAttendances groups every stored record by event. Unlike
// GetAttendanceByEvent it does not filter on approval status.
func (s *AttendanceService) GetAllAttendances(ctx context.Context) (map[uint]map[uint]domain.Status, error) {
	buckets, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	byEvent := make(map[uint]map[uint]domain.Status)
	for _, b := range buckets {
		for _, rec := range b.Records {
			users, ok := byEvent[rec.EventID]
			if !ok {
				users = make(map[uint]domain.Status)
				byEvent[rec.EventID] = users
			}
			users[b.UserID] = rec.Status
		}
	}

	return byEvent, nil
}

func (s *AttendanceService) GetDetailedAttendances(ctx context.Context) (map[uint]domain.DetailedAttendance, error) {
	buckets, owners, err := s.bucketsWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	detailed := make(map[uint]domain.DetailedAttendance, len(buckets))
	for _, b := range buckets {
		user, ok := owners[b.UserID]
		if !ok {
			continue
		}

		records := b.Records
		if records == nil {
			records = []domain.AttendanceRecord{}
		}
		detailed[b.UserID] = domain.DetailedAttendance{User: user, Records: records}
	}

	return detailed, nil
}

// GetAttendanceSummary folds the user's bucket into counts. A user who was
// never marked gets a zero summary.
func (s *AttendanceService) GetAttendanceSummary(ctx context.Context, userID uint) (domain.AttendanceSummary, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.AttendanceSummary{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	bucket, err := s.repo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrAttendanceNotFound) {
		return domain.AttendanceSummary{}, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	summary := domain.Summarize(bucket.Records)
	summary.UserID = user.ID
	summary.Name = user.Name

	return summary, nil
}

func (s *AttendanceService) GetAllAttendanceSummaries(ctx context.Context) (map[uint]domain.AttendanceSummary, error) {
	buckets, owners, err := s.bucketsWithOwners(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make(map[uint]domain.AttendanceSummary, len(buckets))
	for _, b := range buckets {
		user, ok := owners[b.UserID]
		if !ok {
			continue
		}

		summary := domain.Summarize(b.Records)
		summary.UserID = user.ID
		summary.Name = user.Name
		summaries[b.UserID] = summary
	}

	return summaries, nil
}

func (s *AttendanceService) GetMyAttendance(ctx context.Context, actor domain.User) (domain.UserAttendance, error) {
	bucket, err := s.repo.FindByUserID(ctx, actor.ID)
	if err != nil && !errors.Is(err, repository.ErrAttendanceNotFound) {
		return domain.UserAttendance{}, fmt.Errorf("s.repo.FindByUserID -> %w", err)
	}

	summary := domain.Summarize(bucket.Records)
	summary.UserID = actor.ID
	summary.Name = actor.Name

	records := bucket.Records
	if records == nil {
		records = []domain.AttendanceRecord{}
	}

	return domain.UserAttendance{Summary: summary, Records: records}, nil
}

// bucketsWithOwners loads every bucket and the users that still own one.
func (s *AttendanceService) bucketsWithOwners(ctx context.Context) ([]domain.AttendanceBucket, map[uint]domain.User, error) {
	buckets, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}
	if len(buckets) == 0 {
		return buckets, map[uint]domain.User{}, nil
	}

	ids := make([]uint, len(buckets))
	for i, b := range buckets {
		ids[i] = b.UserID
	}

	users, err := s.userRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("s.userRepo.FindByIDs -> %w", err)
	}
	owners := make(map[uint]domain.User, len(users))
	for _, u := range users {
		owners[u.ID] = u
	}

	return buckets, owners, nil
}
