package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrSongNotFound = errors.New("song not found")

type Song struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null;index"`
	Composer  string
	Category  string `gorm:"not null;index"`
	Key       string `gorm:"size:16"`
	Lyrics    string `gorm:"type:text"`
	SheetURL  string
	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SongDAO struct {
	db *gorm.DB
}

func NewSongDAO(db *gorm.DB) *SongDAO {
	return &SongDAO{
		db: db,
	}
}

func (d *SongDAO) Insert(ctx context.Context, song Song) (Song, error) {
	if result := d.db.WithContext(ctx).Create(&song); result.Error != nil {
		return Song{}, result.Error
	}

	return song, nil
}

func (d *SongDAO) FindByID(ctx context.Context, id uint) (Song, error) {
	var song Song

	result := d.db.WithContext(ctx).First(&song, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Song{}, ErrSongNotFound
		}

		return Song{}, result.Error
	}

	return song, nil
}

// Find filters by a case-insensitive match on title or composer and an exact
// category. Empty arguments are ignored.
func (d *SongDAO) Find(ctx context.Context, query, category string) ([]Song, error) {
	var songs []Song

	db := d.db.WithContext(ctx).Order("title ASC")
	if query != "" {
		like := "%" + query + "%"
		db = db.Where("title ILIKE ? OR composer ILIKE ?", like, like)
	}
	if category != "" {
		db = db.Where("category = ?", category)
	}
	if result := db.Find(&songs); result.Error != nil {
		return nil, result.Error
	}

	return songs, nil
}

func (d *SongDAO) Update(ctx context.Context, song Song) (Song, error) {
	result := d.db.WithContext(ctx).Model(&Song{ID: song.ID}).Select(
		"Title", "Composer", "Category", "Key", "Lyrics", "SheetURL",
	).Updates(&song)
	if result.Error != nil {
		return Song{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Song{}, ErrSongNotFound
	}

	return d.FindByID(ctx, song.ID)
}

func (d *SongDAO) Delete(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Delete(&Song{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSongNotFound
	}

	return nil
}
