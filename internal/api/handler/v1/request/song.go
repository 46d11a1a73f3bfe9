package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/choirhub/choir-api/internal/domain"
)

type SongRequest struct {
	Title    string `json:"title"`
	Composer string `json:"composer,omitempty"`
	Category string `json:"category"`
	Key      string `json:"key,omitempty"`
	Lyrics   string `json:"lyrics,omitempty"`
	SheetURL string `json:"sheet_url,omitempty"`
}

func (req *SongRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Composer, validation.Length(0, 200)),
		validation.Field(&req.Category, validation.Required),
		validation.Field(&req.Key, validation.Length(0, 10)),
		validation.Field(&req.SheetURL, is.URL),
	)
}

func (req *SongRequest) ToDomain() domain.Song {
	return domain.Song{
		Title:    req.Title,
		Composer: req.Composer,
		Category: req.Category,
		Key:      req.Key,
		Lyrics:   req.Lyrics,
		SheetURL: req.SheetURL,
	}
}
