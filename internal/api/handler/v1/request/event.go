package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/choirhub/choir-api/internal/domain"
)

type EventRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type" enums:"Practice,Service"`
	Date        string `json:"date" format:"YYYY-MM-DD"`
	StartTime   string `json:"startTime" format:"HH:MM"`
	EndTime     string `json:"endTime,omitempty" format:"HH:MM"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

func (req *EventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Type, validation.Required, validation.In(string(domain.EventTypePractice), string(domain.EventTypeService))),
		validation.Field(&req.Date, validation.Required, validation.By(isDate)),
		validation.Field(&req.StartTime, validation.Required, validation.By(isClock)),
		validation.Field(&req.EndTime, validation.By(isClock)),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.Description, validation.Length(0, 1000)),
	)
}

// ToDomain must only be called after Validate.
func (req *EventRequest) ToDomain() domain.Event {
	day, _ := domain.ParseDate(req.Date)

	return domain.Event{
		Name:        req.Name,
		Type:        domain.EventType(req.Type),
		Date:        day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Description: req.Description,
	}
}
