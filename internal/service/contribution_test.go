package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choirhub/choir-api/internal/domain"
)

func newContributionFixture() (*ContributionService, *fakeContributionRepo) {
	repo := newFakeContributionRepo(domain.Contribution{ID: 1, Title: "Robes", TargetAmount: 10000})
	users := newFakeUserRepo(
		domain.User{ID: 1, Name: "Ana", Status: domain.UserStatusApproved},
		domain.User{ID: 2, Name: "Ben", Status: domain.UserStatusApproved},
	)

	svc := NewContributionService(repo, users)
	svc.now = fixedClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	n := 0
	svc.newRef = func() string {
		n++
		return fmt.Sprintf("ref-%d", n)
	}

	return svc, repo
}

func TestContributionService_AddPayment(t *testing.T) {
	ctx := context.Background()
	svc, _ := newContributionFixture()
	treasurer := domain.User{ID: 7, Role: domain.RoleTreasurer}

	ledger, err := svc.AddPayment(ctx, treasurer, 1, 1, 4000, " cash ")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(4000), ledger.AmountPaid)
	assert.False(t, ledger.IsPaid)
	assert.Equal(t, "Ana", ledger.UserName)
	require.Len(t, ledger.PaymentHistory, 1)
	assert.Equal(t, domain.PaymentEntry{
		Amount:     4000,
		PaidAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Note:       "cash",
		RecordedBy: 7,
		Reference:  "ref-1",
	}, ledger.PaymentHistory[0])

	ledger, err = svc.AddPayment(ctx, treasurer, 1, 1, 6000, "")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(10000), ledger.AmountPaid)
	assert.True(t, ledger.IsPaid)
	assert.Len(t, ledger.PaymentHistory, 2)

	_, err = svc.AddPayment(ctx, treasurer, 1, 1, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.AddPayment(ctx, treasurer, 1, 1, -500, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = svc.AddPayment(ctx, treasurer, 9, 1, 1000, "")
	assert.ErrorIs(t, err, ErrContributionNotFound)
	_, err = svc.AddPayment(ctx, treasurer, 1, 9, 1000, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestContributionService_MarkAsPaid(t *testing.T) {
	ctx := context.Background()
	svc, repo := newContributionFixture()
	treasurer := domain.User{ID: 7, Role: domain.RoleTreasurer}

	_, err := svc.AddPayment(ctx, treasurer, 1, 2, 3000, "")
	require.NoError(t, err)

	ledger, err := svc.MarkAsPaid(ctx, treasurer, 1, 2)
	require.NoError(t, err)
	assert.True(t, ledger.IsPaid)
	assert.Equal(t, domain.Money(10000), ledger.AmountPaid)
	require.Len(t, ledger.PaymentHistory, 2)
	assert.Equal(t, domain.Money(7000), ledger.PaymentHistory[1].Amount)
	assert.Equal(t, "Marked as fully paid", ledger.PaymentHistory[1].Note)

	_, err = svc.MarkAsPaid(ctx, treasurer, 1, 2)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	stored, err := repo.FindLedgers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].PaymentHistory, 2)
}

func TestContributionService_FractionalPayments(t *testing.T) {
	ctx := context.Background()
	svc, repo := newContributionFixture()
	treasurer := domain.User{ID: 7, Role: domain.RoleTreasurer}
	repo.contributions[2] = domain.Contribution{ID: 2, Title: "Candles", TargetAmount: 80}

	ledger, err := svc.AddPayment(ctx, treasurer, 2, 1, 70, "")
	require.NoError(t, err)
	assert.False(t, ledger.IsPaid)

	ledger, err = svc.AddPayment(ctx, treasurer, 2, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, domain.Money(80), ledger.AmountPaid)
	assert.True(t, ledger.IsPaid)

	_, err = svc.MarkAsPaid(ctx, treasurer, 2, 1)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	mine, err := svc.GetUserContributions(ctx, 1)
	require.NoError(t, err)
	for _, uc := range mine {
		if uc.Contribution.ID == 2 {
			assert.Equal(t, domain.Money(0), uc.Remaining)
		}
	}
}

func TestContributionService_DetailAndUserView(t *testing.T) {
	ctx := context.Background()
	svc, _ := newContributionFixture()
	treasurer := domain.User{ID: 7, Role: domain.RoleTreasurer}

	second, err := svc.CreateContribution(ctx, treasurer, domain.Contribution{Title: " Tour ", TargetAmount: 5000})
	require.NoError(t, err)
	assert.Equal(t, "Tour", second.Title)
	assert.Equal(t, uint(7), second.CreatedBy)

	_, err = svc.CreateContribution(ctx, treasurer, domain.Contribution{Title: "Nothing"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.MarkAsPaid(ctx, treasurer, 1, 1)
	require.NoError(t, err)
	_, err = svc.AddPayment(ctx, treasurer, 1, 2, 2500, "")
	require.NoError(t, err)

	detail, err := svc.GetContribution(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(12500), detail.TotalCollected)
	assert.Equal(t, 1, detail.PaidCount)
	assert.Len(t, detail.Payments, 2)

	mine, err := svc.GetUserContributions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, domain.Money(7500), mine[0].Remaining)
	assert.Equal(t, "Ben", mine[0].Ledger.UserName)
	assert.Equal(t, domain.Money(5000), mine[1].Remaining)
	assert.NotNil(t, mine[1].Ledger.PaymentHistory)

	// lowering the target settles Ben's ledger
	_, err = svc.UpdateContribution(ctx, 1, domain.Contribution{Title: "Robes", TargetAmount: 2500})
	require.NoError(t, err)
	detail, err = svc.GetContribution(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.PaidCount)

	require.NoError(t, svc.DeleteContribution(ctx, second.ID))
	_, err = svc.GetContribution(ctx, second.ID)
	assert.ErrorIs(t, err, ErrContributionNotFound)
}
