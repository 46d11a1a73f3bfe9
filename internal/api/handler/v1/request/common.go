package request

import (
	"encoding/json"
	"errors"

	"github.com/choirhub/choir-api/internal/domain"
)

var (
	errInvalidDate  = errors.New("must be a date formatted as YYYY-MM-DD")
	errInvalidClock = errors.New("must be a time formatted as HH:MM")
	errInvalidMoney = errors.New("must be a positive amount with at most two decimals")
)

func isDate(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := domain.ParseDate(s); err != nil {
		return errInvalidDate
	}
	return nil
}

func isClock(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := domain.ParseClock(s); err != nil {
		return errInvalidClock
	}
	return nil
}

func isPositiveMoney(value interface{}) error {
	n, _ := value.(json.Number)
	if n == "" {
		return nil
	}
	m, err := domain.ParseMoney(n.String())
	if err != nil || m <= 0 {
		return errInvalidMoney
	}
	return nil
}

func mustMoney(n json.Number) domain.Money {
	m, _ := domain.ParseMoney(n.String())
	return m
}
