package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/choirhub/choir-api/internal/domain"
)

const (
	passwordRegexPattern = `^(?=.*[A-Za-z])(?=.*\d).{8,}$`
)

var passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)

var (
	errInvalidPassword         = errors.New("the password must be at least 8 characters and contain 1 letter and 1 number")
	errConfirmPasswordMismatch = errors.New("confirm password doesn't match the password")
)

var voiceParts = []interface{}{
	string(domain.VoiceSoprano),
	string(domain.VoiceAlto),
	string(domain.VoiceTenor),
	string(domain.VoiceBass),
}

type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	VoicePart       string `json:"voice_part,omitempty"`
}

func (req *SignupRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.ConfirmPassword, validation.Required),
		validation.Field(&req.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&req.Phone, validation.Length(0, 20)),
		validation.Field(&req.VoicePart, validation.In(voiceParts...)),
	)
	if err != nil {
		return err
	}

	if ok, _ := passwordExp.MatchString(req.Password); !ok {
		return errInvalidPassword
	}

	if req.Password != req.ConfirmPassword {
		return errConfirmPasswordMismatch
	}

	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *LoginRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}
