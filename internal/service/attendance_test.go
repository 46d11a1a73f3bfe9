package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choirhub/choir-api/internal/domain"
)

type attendanceFixture struct {
	svc      *AttendanceService
	repo     *fakeAttendanceRepo
	users    *fakeUserRepo
	notifier *recordingNotifier
}

var rehearsal = domain.Event{
	ID:        10,
	Name:      "Rehearsal",
	Type:      domain.EventTypePractice,
	Date:      domain.NewDate(2024, 5, 1),
	StartTime: "18:00",
	EndTime:   "20:00",
}

func newAttendanceFixture(buckets ...domain.AttendanceBucket) attendanceFixture {
	users := newFakeUserRepo(
		domain.User{ID: 1, Name: "Ana", Role: domain.RoleMember, Status: domain.UserStatusApproved},
		domain.User{ID: 2, Name: "Ben", Role: domain.RoleMember, Status: domain.UserStatusApproved},
		domain.User{ID: 3, Name: "Cy", Role: domain.RoleMember, Status: domain.UserStatusPending},
		domain.User{ID: 4, Name: "Dee", Role: domain.RoleMember, Status: domain.UserStatusApproved},
	)
	permits := newFakePermissionRepo(
		domain.Permission{
			ID: 1, UserID: 2, Status: domain.PermissionApproved,
			StartDate: domain.NewDate(2024, 4, 28), EndDate: domain.NewDate(2024, 5, 3),
		},
		// pending requests never excuse
		domain.Permission{
			ID: 2, UserID: 4, Status: domain.PermissionPending,
			StartDate: domain.NewDate(2024, 5, 1), EndDate: domain.NewDate(2024, 5, 1),
		},
	)
	repo := newFakeAttendanceRepo(buckets...)
	notifier := &recordingNotifier{}

	return attendanceFixture{
		svc:      NewAttendanceService(repo, users, newFakeEventRepo(rehearsal), permits, notifier),
		repo:     repo,
		users:    users,
		notifier: notifier,
	}
}

func TestAttendanceService_SaveAttendance(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()

	res, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{
		1: domain.StatusPresent,
		2: domain.StatusPresent,
		3: domain.StatusPresent,
	})
	require.NoError(t, err)
	assert.Equal(t, "Attendance saved successfully", res.Message)
	assert.Equal(t, 3, res.UpdatedCount)

	statuses, err := f.svc.GetAttendanceByEvent(ctx, rehearsal.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]domain.Status{
		1: domain.StatusPresent,
		2: domain.StatusExcused,
		4: domain.StatusAbsent,
	}, statuses)

	// pending users are not on the roster
	_, err = f.repo.FindByUserID(ctx, 3)
	assert.ErrorIs(t, err, ErrAttendanceNotFound)

	bucket, err := f.repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, bucket.Records, 1)
	assert.Equal(t, "Rehearsal", bucket.Records[0].Name)
	assert.Equal(t, rehearsal.Date, bucket.Records[0].Date)

	assert.Equal(t, []string{NoticeAttendanceSaved}, f.notifier.kinds())
}

func TestAttendanceService_SaveAttendance_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	submitted := map[uint]domain.Status{1: domain.StatusPresent, 4: domain.StatusExcused}

	_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, submitted)
	require.NoError(t, err)
	first, err := f.repo.FindAll(ctx)
	require.NoError(t, err)

	_, err = f.svc.SaveAttendance(ctx, rehearsal.ID, submitted)
	require.NoError(t, err)
	second, err := f.repo.FindAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for _, b := range second {
		assert.Len(t, b.Records, 1, "user %d", b.UserID)
	}
}

func TestAttendanceService_SaveAttendance_SecondSaveWins(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()

	_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusPresent, 4: domain.StatusPresent})
	require.NoError(t, err)
	_, err = f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusAbsent})
	require.NoError(t, err)

	statuses, err := f.svc.GetAttendanceByEvent(ctx, rehearsal.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]domain.Status{
		1: domain.StatusAbsent,
		2: domain.StatusExcused,
		4: domain.StatusAbsent,
	}, statuses)

	for _, id := range []uint{1, 2, 4} {
		b, err := f.repo.FindByUserID(ctx, id)
		require.NoError(t, err)
		assert.Len(t, b.Records, 1, "user %d", id)
	}
}

func TestAttendanceService_SaveAttendance_KeepsOtherEvents(t *testing.T) {
	ctx := context.Background()
	older := domain.AttendanceRecord{
		EventID:       7,
		EventSnapshot: domain.EventSnapshot{Name: "Easter Mass", Date: domain.NewDate(2024, 3, 31)},
		Status:        domain.StatusPresent,
	}
	f := newAttendanceFixture(domain.AttendanceBucket{UserID: 1, Name: "Ana", Records: []domain.AttendanceRecord{older}})

	_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusAbsent})
	require.NoError(t, err)

	b, err := f.repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, b.Records, 2)
	assert.Equal(t, older, b.Records[0])
	assert.Equal(t, domain.StatusAbsent, b.Records[1].Status)
}

func TestAttendanceService_SaveAttendance_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		f := newAttendanceFixture()
		_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: "Late"})
		assert.ErrorIs(t, err, ErrInvalidStatus)
		assert.Empty(t, f.repo.buckets)
	})

	t.Run("no event marker is not accepted", func(t *testing.T) {
		f := newAttendanceFixture()
		_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusNoEvent})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("unknown event", func(t *testing.T) {
		f := newAttendanceFixture()
		_, err := f.svc.SaveAttendance(ctx, 99, map[uint]domain.Status{1: domain.StatusPresent})
		assert.ErrorIs(t, err, ErrEventNotFound)
		assert.Empty(t, f.repo.buckets)
		assert.Empty(t, f.notifier.kinds())
	})

	t.Run("store failure", func(t *testing.T) {
		f := newAttendanceFixture()
		f.repo.err = errors.New("connection reset")
		_, err := f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusPresent})
		assert.Error(t, err)
		assert.Empty(t, f.notifier.kinds())
	})
}

func TestAttendanceService_ApprovalAsymmetry(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(
		domain.AttendanceBucket{UserID: 1, Name: "Ana", Records: []domain.AttendanceRecord{
			{EventID: rehearsal.ID, Status: domain.StatusPresent},
		}},
		domain.AttendanceBucket{UserID: 3, Name: "Cy", Records: []domain.AttendanceRecord{
			{EventID: rehearsal.ID, Status: domain.StatusAbsent},
		}},
	)

	byEvent, err := f.svc.GetAttendanceByEvent(ctx, rehearsal.ID)
	require.NoError(t, err)
	assert.Equal(t, map[uint]domain.Status{1: domain.StatusPresent}, byEvent)

	all, err := f.svc.GetAllAttendances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[uint]map[uint]domain.Status{
		rehearsal.ID: {1: domain.StatusPresent, 3: domain.StatusAbsent},
	}, all)
}

func TestAttendanceService_Summaries(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture(
		domain.AttendanceBucket{UserID: 1, Name: "Ana", Records: []domain.AttendanceRecord{
			{EventID: 1, Status: domain.StatusPresent},
			{EventID: 2, Status: domain.StatusAbsent},
			{EventID: 3, Status: domain.StatusExcused},
		}},
		// owner deleted, the bucket is kept but not reported
		domain.AttendanceBucket{UserID: 42, Name: "Gone", Records: []domain.AttendanceRecord{
			{EventID: 1, Status: domain.StatusPresent},
		}},
	)

	summary, err := f.svc.GetAttendanceSummary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceSummary{
		UserID: 1, Name: "Ana", Present: 1, Absent: 1, Excused: 1, TotalEvents: 3, Percentage: 67,
	}, summary)

	empty, err := f.svc.GetAttendanceSummary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceSummary{UserID: 2, Name: "Ben"}, empty)

	_, err = f.svc.GetAttendanceSummary(ctx, 77)
	assert.ErrorIs(t, err, ErrUserNotFound)

	all, err := f.svc.GetAllAttendanceSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 67, all[1].Percentage)

	detailed, err := f.svc.GetDetailedAttendances(ctx)
	require.NoError(t, err)
	require.Len(t, detailed, 1)
	assert.Equal(t, "Ana", detailed[1].User.Name)
	assert.Len(t, detailed[1].Records, 3)
}

func TestAttendanceService_GetMyAttendance(t *testing.T) {
	ctx := context.Background()
	f := newAttendanceFixture()
	ana := domain.User{ID: 1, Name: "Ana"}

	mine, err := f.svc.GetMyAttendance(ctx, ana)
	require.NoError(t, err)
	assert.NotNil(t, mine.Records)
	assert.Empty(t, mine.Records)
	assert.Equal(t, "Ana", mine.Summary.Name)

	_, err = f.svc.SaveAttendance(ctx, rehearsal.ID, map[uint]domain.Status{1: domain.StatusPresent})
	require.NoError(t, err)

	mine, err = f.svc.GetMyAttendance(ctx, ana)
	require.NoError(t, err)
	require.Len(t, mine.Records, 1)
	assert.Equal(t, 100, mine.Summary.Percentage)
}
