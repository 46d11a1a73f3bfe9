package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Name      string `gorm:"not null"`
	Phone     string
	VoicePart string
	Role      string `gorm:"not null;default:Member"` // see domain.Roles
	Status    string `gorm:"not null;default:pending;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, `unique constraint "uni_users_email"`) {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// FindAll lists users ordered by name; an empty status returns every user.
func (d *UserDAO) FindAll(ctx context.Context, status string) ([]User, error) {
	var users []User

	query := d.db.WithContext(ctx).Order("name ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if result := query.Find(&users); result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (d *UserDAO) FindByIDs(ctx context.Context, ids []uint) ([]User, error) {
	var users []User
	if len(ids) == 0 {
		return users, nil
	}

	result := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

func (d *UserDAO) Update(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Save(&user)
	if result.Error != nil {
		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) UpdateColumns(ctx context.Context, id uint, columns map[string]interface{}) (User, error) {
	result := d.db.WithContext(ctx).Model(&User{ID: id}).Updates(columns)
	if result.Error != nil {
		return User{}, result.Error
	}
	if result.RowsAffected == 0 {
		return User{}, ErrUserNotFound
	}

	return d.FindByID(ctx, id)
}

// Delete removes the user and their absence requests. Attendance buckets are
// kept on purpose, they are history.
func (d *UserDAO) Delete(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&Permission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrUserNotFound
		}

		return nil
	})
}
