package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository/dao"
)

var ErrContributionNotFound = dao.ErrContributionNotFound

type ContributionDAO interface {
	WithTx(ctx context.Context, fn func(tx *dao.ContributionDAO) error) error
	Insert(ctx context.Context, contribution dao.Contribution) (dao.Contribution, error)
	FindByID(ctx context.Context, id uint) (dao.Contribution, error)
	FindAll(ctx context.Context) ([]dao.Contribution, error)
	Delete(ctx context.Context, id uint) error
	FindPayments(ctx context.Context, contributionID uint) ([]dao.ContributionPayment, error)
	FindPaymentsByUserID(ctx context.Context, userID uint) ([]dao.ContributionPayment, error)
}

type ContributionRepository struct {
	dao ContributionDAO
}

func NewContributionRepository(dao ContributionDAO) *ContributionRepository {
	return &ContributionRepository{
		dao: dao,
	}
}

func (r *ContributionRepository) Create(ctx context.Context, c domain.Contribution) (domain.Contribution, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(c))
	if err != nil {
		return domain.Contribution{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ContributionRepository) FindByID(ctx context.Context, id uint) (domain.Contribution, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Contribution{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *ContributionRepository) FindAll(ctx context.Context) ([]domain.Contribution, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	contributions := make([]domain.Contribution, len(found))
	for i, c := range found {
		contributions[i] = r.daoToDomain(c)
	}

	return contributions, nil
}

// Update saves the contribution and refreshes every ledger's paid flag
// against the new target in the same transaction.
func (r *ContributionRepository) Update(ctx context.Context, c domain.Contribution) (domain.Contribution, error) {
	var updated dao.Contribution
	err := r.dao.WithTx(ctx, func(tx *dao.ContributionDAO) error {
		var err error
		updated, err = tx.Update(ctx, r.domainToDao(c))
		if err != nil {
			return fmt.Errorf("tx.Update -> %w", err)
		}

		if err := tx.RecomputePaid(ctx, updated.ID, updated.TargetAmount); err != nil {
			return fmt.Errorf("tx.RecomputePaid -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Contribution{}, fmt.Errorf("r.dao.WithTx -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ContributionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.dao.Delete(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Delete -> %w", err)
	}

	return nil
}

func (r *ContributionRepository) FindLedgers(ctx context.Context, contributionID uint) ([]domain.PaymentLedger, error) {
	found, err := r.dao.FindPayments(ctx, contributionID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPayments -> %w", err)
	}

	return r.ledgersToDomain(found), nil
}

func (r *ContributionRepository) FindLedgersByUserID(ctx context.Context, userID uint) ([]domain.PaymentLedger, error) {
	found, err := r.dao.FindPaymentsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPaymentsByUserID -> %w", err)
	}

	return r.ledgersToDomain(found), nil
}

// UpdateLedger loads the member's ledger under a row lock, lets fn change
// it and saves the result. Nothing is written when fn returns an error.
func (r *ContributionRepository) UpdateLedger(
	ctx context.Context, contributionID, userID uint, fn func(ledger *domain.PaymentLedger) error,
) (domain.PaymentLedger, error) {
	var saved dao.ContributionPayment
	err := r.dao.WithTx(ctx, func(tx *dao.ContributionDAO) error {
		row, err := tx.LockPayment(ctx, contributionID, userID)
		if err != nil {
			return fmt.Errorf("tx.LockPayment -> %w", err)
		}

		ledger := r.ledgerToDomain(row)
		if err := fn(&ledger); err != nil {
			return err
		}

		row.AmountPaid = int64(ledger.AmountPaid)
		row.IsPaid = ledger.IsPaid
		row.PaymentHistory = r.entriesToDao(ledger.PaymentHistory)
		saved, err = tx.SavePayment(ctx, row)
		if err != nil {
			return fmt.Errorf("tx.SavePayment -> %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.PaymentLedger{}, fmt.Errorf("r.dao.WithTx -> %w", err)
	}

	return r.ledgerToDomain(saved), nil
}

func (r *ContributionRepository) domainToDao(c domain.Contribution) dao.Contribution {
	var due *time.Time
	if c.DueDate != nil {
		t := c.DueDate.Time
		due = &t
	}

	return dao.Contribution{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		TargetAmount: int64(c.TargetAmount),
		DueDate:      due,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *ContributionRepository) daoToDomain(c dao.Contribution) domain.Contribution {
	var due *domain.Date
	if c.DueDate != nil {
		d := domain.DateOf(*c.DueDate)
		due = &d
	}

	return domain.Contribution{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		TargetAmount: domain.Money(c.TargetAmount),
		DueDate:      due,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func (r *ContributionRepository) ledgerToDomain(p dao.ContributionPayment) domain.PaymentLedger {
	history := make([]domain.PaymentEntry, len(p.PaymentHistory))
	for i, e := range p.PaymentHistory {
		history[i] = domain.PaymentEntry{
			Amount:     domain.Money(e.Amount),
			PaidAt:     e.PaidAt,
			Note:       e.Note,
			RecordedBy: e.RecordedBy,
			Reference:  e.Reference,
		}
	}

	return domain.PaymentLedger{
		ContributionID: p.ContributionID,
		UserID:         p.UserID,
		UserName:       p.UserName,
		AmountPaid:     domain.Money(p.AmountPaid),
		IsPaid:         p.IsPaid,
		PaymentHistory: history,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (r *ContributionRepository) ledgersToDomain(found []dao.ContributionPayment) []domain.PaymentLedger {
	ledgers := make([]domain.PaymentLedger, len(found))
	for i, p := range found {
		ledgers[i] = r.ledgerToDomain(p)
	}
	return ledgers
}

func (r *ContributionRepository) entriesToDao(entries []domain.PaymentEntry) datatypes.JSONSlice[dao.PaymentEntry] {
	out := make(datatypes.JSONSlice[dao.PaymentEntry], len(entries))
	for i, e := range entries {
		out[i] = dao.PaymentEntry{
			Amount:     int64(e.Amount),
			PaidAt:     e.PaidAt,
			Note:       e.Note,
			RecordedBy: e.RecordedBy,
			Reference:  e.Reference,
		}
	}
	return out
}
