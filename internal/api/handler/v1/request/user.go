package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/choirhub/choir-api/internal/domain"
)

type UpdateProfileRequest struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	VoicePart *string `json:"voice_part,omitempty"`
}

func (req *UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.NilOrNotEmpty, validation.Length(2, 100)),
		validation.Field(&req.Phone, validation.Length(0, 20)),
		validation.Field(&req.VoicePart, validation.In(voiceParts...)),
	)
}

func (req *UpdateProfileRequest) ToDomain() domain.ProfileUpdate {
	update := domain.ProfileUpdate{Name: req.Name, Phone: req.Phone}
	if req.VoicePart != nil {
		part := domain.VoicePart(*req.VoicePart)
		update.VoicePart = &part
	}
	return update
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (req *UpdateRoleRequest) Validate() error {
	roles := make([]interface{}, len(domain.Roles))
	for i, r := range domain.Roles {
		roles[i] = string(r)
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.Role, validation.Required, validation.In(roles...)),
	)
}
