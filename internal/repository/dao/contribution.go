package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrContributionNotFound = errors.New("contribution not found")

type Contribution struct {
	ID           uint   `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Description  string
	TargetAmount int64      `gorm:"not null"` // cents
	DueDate      *time.Time `gorm:"type:date"`
	CreatedBy    uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PaymentEntry struct {
	Amount     int64     `json:"amountCents"`
	PaidAt     time.Time `json:"paidAt"`
	Note       string    `json:"note,omitempty"`
	RecordedBy uint      `json:"recordedBy"`
	Reference  string    `json:"reference"`
}

// ContributionPayment is a member's ledger for one contribution. Amounts are
// stored in cents.
type ContributionPayment struct {
	ID             uint                              `gorm:"primaryKey"`
	ContributionID uint                              `gorm:"not null;uniqueIndex:idx_contribution_user"`
	UserID         uint                              `gorm:"not null;uniqueIndex:idx_contribution_user;index"`
	UserName       string                            `gorm:"->;-:migration"` // joined from users
	AmountPaid     int64                             `gorm:"not null;default:0"`
	IsPaid         bool                              `gorm:"not null;default:false"`
	PaymentHistory datatypes.JSONSlice[PaymentEntry] `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type ContributionDAO struct {
	db *gorm.DB
}

func NewContributionDAO(db *gorm.DB) *ContributionDAO {
	return &ContributionDAO{
		db: db,
	}
}

func (d *ContributionDAO) WithTx(ctx context.Context, fn func(tx *ContributionDAO) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ContributionDAO{db: tx})
	})
}

func (d *ContributionDAO) Insert(ctx context.Context, contribution Contribution) (Contribution, error) {
	if result := d.db.WithContext(ctx).Create(&contribution); result.Error != nil {
		return Contribution{}, result.Error
	}

	return contribution, nil
}

func (d *ContributionDAO) FindByID(ctx context.Context, id uint) (Contribution, error) {
	var contribution Contribution

	result := d.db.WithContext(ctx).First(&contribution, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Contribution{}, ErrContributionNotFound
		}

		return Contribution{}, result.Error
	}

	return contribution, nil
}

func (d *ContributionDAO) FindAll(ctx context.Context) ([]Contribution, error) {
	var contributions []Contribution

	if result := d.db.WithContext(ctx).Order("created_at DESC").Find(&contributions); result.Error != nil {
		return nil, result.Error
	}

	return contributions, nil
}

func (d *ContributionDAO) Update(ctx context.Context, contribution Contribution) (Contribution, error) {
	result := d.db.WithContext(ctx).Model(&Contribution{ID: contribution.ID}).Select(
		"Title", "Description", "TargetAmount", "DueDate",
	).Updates(&contribution)
	if result.Error != nil {
		return Contribution{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Contribution{}, ErrContributionNotFound
	}

	return d.FindByID(ctx, contribution.ID)
}

// RecomputePaid refreshes is_paid on every ledger after a target change.
func (d *ContributionDAO) RecomputePaid(ctx context.Context, contributionID uint, target int64) error {
	return d.db.WithContext(ctx).
		Model(&ContributionPayment{}).
		Where("contribution_id = ?", contributionID).
		Update("is_paid", gorm.Expr("amount_paid >= ?", target)).Error
}

// Delete removes the contribution together with its ledgers.
func (d *ContributionDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("contribution_id = ?", id).Delete(&ContributionPayment{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&Contribution{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrContributionNotFound
		}

		return nil
	})
}

func (d *ContributionDAO) paymentsWithUserName(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx).
		Model(&ContributionPayment{}).
		Select("contribution_payments.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = contribution_payments.user_id")
}

func (d *ContributionDAO) FindPayments(ctx context.Context, contributionID uint) ([]ContributionPayment, error) {
	var payments []ContributionPayment

	result := d.paymentsWithUserName(ctx).
		Where("contribution_payments.contribution_id = ?", contributionID).
		Order("users.name ASC").
		Find(&payments)
	if result.Error != nil {
		return nil, result.Error
	}

	return payments, nil
}

func (d *ContributionDAO) FindPaymentsByUserID(ctx context.Context, userID uint) ([]ContributionPayment, error) {
	var payments []ContributionPayment

	result := d.paymentsWithUserName(ctx).
		Where("contribution_payments.user_id = ?", userID).
		Find(&payments)
	if result.Error != nil {
		return nil, result.Error
	}

	return payments, nil
}

// LockPayment returns the ledger row for (contributionID, userID) locked for
// update, creating an empty one first when missing.
func (d *ContributionDAO) LockPayment(ctx context.Context, contributionID, userID uint) (ContributionPayment, error) {
	empty := ContributionPayment{
		ContributionID: contributionID,
		UserID:         userID,
		PaymentHistory: datatypes.JSONSlice[PaymentEntry]{},
	}
	err := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contribution_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&empty).Error
	if err != nil {
		return ContributionPayment{}, err
	}

	var payment ContributionPayment
	result := d.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contribution_id = ? AND user_id = ?", contributionID, userID).
		First(&payment)
	if result.Error != nil {
		return ContributionPayment{}, result.Error
	}

	return payment, nil
}

func (d *ContributionDAO) SavePayment(ctx context.Context, payment ContributionPayment) (ContributionPayment, error) {
	if result := d.db.WithContext(ctx).Save(&payment); result.Error != nil {
		return ContributionPayment{}, result.Error
	}

	return payment, nil
}
