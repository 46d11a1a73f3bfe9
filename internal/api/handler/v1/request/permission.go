package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/choirhub/choir-api/internal/domain"
)

type CreatePermissionRequest struct {
	StartDate string `json:"startDate" format:"YYYY-MM-DD"`
	EndDate   string `json:"endDate" format:"YYYY-MM-DD"`
	Reason    string `json:"reason"`
	Details   string `json:"details,omitempty"`
}

func (req *CreatePermissionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.StartDate, validation.Required, validation.By(isDate)),
		validation.Field(&req.EndDate, validation.Required, validation.By(isDate)),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Details, validation.Length(0, 1000)),
	)
}

// ToDomain must only be called after Validate.
func (req *CreatePermissionRequest) ToDomain() domain.Permission {
	start, _ := domain.ParseDate(req.StartDate)
	end, _ := domain.ParseDate(req.EndDate)

	return domain.Permission{
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Details:   req.Details,
	}
}

type UpdatePermissionStatusRequest struct {
	Status string `json:"status"`
}

func (req *UpdatePermissionStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required),
	)
}
