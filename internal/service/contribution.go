package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/domain"
	"github.com/choirhub/choir-api/internal/repository"
)

var (
	ErrContributionNotFound = repository.ErrContributionNotFound
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrAlreadyPaid          = errors.New("contribution is already fully paid")
)

type ContributionRepository interface {
	Create(ctx context.Context, c domain.Contribution) (domain.Contribution, error)
	FindByID(ctx context.Context, id uint) (domain.Contribution, error)
	FindAll(ctx context.Context) ([]domain.Contribution, error)
	Update(ctx context.Context, c domain.Contribution) (domain.Contribution, error)
	Delete(ctx context.Context, id uint) error
	FindLedgers(ctx context.Context, contributionID uint) ([]domain.PaymentLedger, error)
	FindLedgersByUserID(ctx context.Context, userID uint) ([]domain.PaymentLedger, error)
	UpdateLedger(ctx context.Context, contributionID, userID uint, fn func(ledger *domain.PaymentLedger) error) (domain.PaymentLedger, error)
}

type ContributionService struct {
	repo     ContributionRepository
	userRepo UserRepository
	now      func() time.Time
	newRef   func() string
}

func NewContributionService(repo ContributionRepository, userRepo UserRepository) *ContributionService {
	return &ContributionService{
		repo:     repo,
		userRepo: userRepo,
		now:      time.Now,
		newRef:   func() string { return uuid.NewString() },
	}
}

func (s *ContributionService) CreateContribution(ctx context.Context, actor domain.User, c domain.Contribution) (domain.Contribution, error) {
	if c.TargetAmount <= 0 {
		return domain.Contribution{}, ErrInvalidAmount
	}
	c.Title = strings.TrimSpace(c.Title)
	c.CreatedBy = actor.ID

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return domain.Contribution{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *ContributionService) ListContributions(ctx context.Context) ([]domain.Contribution, error) {
	contributions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return contributions, nil
}

// GetContribution returns the contribution with every ledger and totals.
func (s *ContributionService) GetContribution(ctx context.Context, id uint) (domain.ContributionDetail, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ContributionDetail{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	ledgers, err := s.repo.FindLedgers(ctx, id)
	if err != nil {
		return domain.ContributionDetail{}, fmt.Errorf("s.repo.FindLedgers -> %w", err)
	}

	return domain.NewContributionDetail(c, ledgers), nil
}

// UpdateContribution also refreshes the paid flag of every ledger when the
// target amount changes.
func (s *ContributionService) UpdateContribution(ctx context.Context, id uint, c domain.Contribution) (domain.Contribution, error) {
	if c.TargetAmount <= 0 {
		return domain.Contribution{}, ErrInvalidAmount
	}
	c.ID = id
	c.Title = strings.TrimSpace(c.Title)

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return domain.Contribution{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *ContributionService) DeleteContribution(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}

func (s *ContributionService) AddPayment(
	ctx context.Context, actor domain.User, contributionID, userID uint, amount domain.Money, note string,
) (domain.PaymentLedger, error) {
	if amount <= 0 {
		return domain.PaymentLedger{}, ErrInvalidAmount
	}

	c, user, err := s.loadParties(ctx, contributionID, userID)
	if err != nil {
		return domain.PaymentLedger{}, err
	}

	entry := s.newEntry(actor, amount, note)
	ledger, err := s.repo.UpdateLedger(ctx, c.ID, user.ID, func(l *domain.PaymentLedger) error {
		l.ApplyPayment(c.TargetAmount, entry)
		return nil
	})
	if err != nil {
		return domain.PaymentLedger{}, fmt.Errorf("s.repo.UpdateLedger -> %w", err)
	}
	ledger.UserName = user.Name

	zap.L().Info("payment recorded",
		zap.Uint("contribution_id", c.ID),
		zap.Uint("user_id", user.ID),
		zap.Stringer("amount", amount),
		zap.String("reference", entry.Reference),
	)

	return ledger, nil
}

// MarkAsPaid records the outstanding balance as one payment.
func (s *ContributionService) MarkAsPaid(
	ctx context.Context, actor domain.User, contributionID, userID uint,
) (domain.PaymentLedger, error) {
	c, user, err := s.loadParties(ctx, contributionID, userID)
	if err != nil {
		return domain.PaymentLedger{}, err
	}

	entry := s.newEntry(actor, 0, "Marked as fully paid")
	ledger, err := s.repo.UpdateLedger(ctx, c.ID, user.ID, func(l *domain.PaymentLedger) error {
		if !l.MarkFullyPaid(c.TargetAmount, entry) {
			return ErrAlreadyPaid
		}
		return nil
	})
	if err != nil {
		return domain.PaymentLedger{}, fmt.Errorf("s.repo.UpdateLedger -> %w", err)
	}
	ledger.UserName = user.Name

	return ledger, nil
}

// GetUserContributions lists every contribution with the user's ledger. A
// user who never paid gets an empty ledger.
func (s *ContributionService) GetUserContributions(ctx context.Context, userID uint) ([]domain.UserContribution, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	contributions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	ledgers, err := s.repo.FindLedgersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindLedgersByUserID -> %w", err)
	}
	byContribution := make(map[uint]domain.PaymentLedger, len(ledgers))
	for _, l := range ledgers {
		byContribution[l.ContributionID] = l
	}

	result := make([]domain.UserContribution, 0, len(contributions))
	for _, c := range contributions {
		ledger, ok := byContribution[c.ID]
		if !ok {
			ledger = domain.PaymentLedger{
				ContributionID: c.ID,
				UserID:         user.ID,
				PaymentHistory: []domain.PaymentEntry{},
			}
		}
		ledger.UserName = user.Name

		result = append(result, domain.UserContribution{
			Contribution: c,
			Ledger:       ledger,
			Remaining:    ledger.Remaining(c.TargetAmount),
		})
	}

	return result, nil
}

func (s *ContributionService) loadParties(ctx context.Context, contributionID, userID uint) (domain.Contribution, domain.User, error) {
	c, err := s.repo.FindByID(ctx, contributionID)
	if err != nil {
		return domain.Contribution{}, domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return domain.Contribution{}, domain.User{}, fmt.Errorf("s.userRepo.FindByID -> %w", err)
	}

	return c, user, nil
}

func (s *ContributionService) newEntry(actor domain.User, amount domain.Money, note string) domain.PaymentEntry {
	return domain.PaymentEntry{
		Amount:     amount,
		PaidAt:     s.now().UTC(),
		Note:       strings.TrimSpace(note),
		RecordedBy: actor.ID,
		Reference:  s.newRef(),
	}
}
