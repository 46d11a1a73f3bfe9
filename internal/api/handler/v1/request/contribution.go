package request

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/choirhub/choir-api/internal/domain"
)

type ContributionRequest struct {
	Title        string      `json:"title"`
	Description  string      `json:"description,omitempty"`
	TargetAmount json.Number `json:"targetAmount" swaggertype:"number" example:"150.00"`
	DueDate      string      `json:"dueDate,omitempty" format:"YYYY-MM-DD"`
}

func (req *ContributionRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(2, 150)),
		validation.Field(&req.Description, validation.Length(0, 1000)),
		validation.Field(&req.TargetAmount, validation.Required, validation.By(isPositiveMoney)),
		validation.Field(&req.DueDate, validation.By(isDate)),
	)
}

// ToDomain must only be called after Validate.
func (req *ContributionRequest) ToDomain() domain.Contribution {
	c := domain.Contribution{
		Title:        req.Title,
		Description:  req.Description,
		TargetAmount: mustMoney(req.TargetAmount),
	}
	if req.DueDate != "" {
		due, _ := domain.ParseDate(req.DueDate)
		c.DueDate = &due
	}
	return c
}

type PaymentRequest struct {
	UserID uint        `json:"userId"`
	Amount json.Number `json:"amount" swaggertype:"number" example:"12.50"`
	Note   string      `json:"note,omitempty"`
}

func (req *PaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Amount, validation.Required, validation.By(isPositiveMoney)),
		validation.Field(&req.Note, validation.Length(0, 200)),
	)
}

// AmountValue must only be called after Validate.
func (req *PaymentRequest) AmountValue() domain.Money {
	return mustMoney(req.Amount)
}
