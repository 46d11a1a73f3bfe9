package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/choirhub/choir-api/internal/domain"
)

type AnnouncementRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

func (req *AnnouncementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 150)),
		validation.Field(&req.Content, validation.Required, validation.Length(1, 5000)),
	)
}

func (req *AnnouncementRequest) ToDomain() domain.Announcement {
	return domain.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}
