package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidMoney   = errors.New("invalid amount")
	ErrMoneyPrecision = errors.New("amount has more than two decimals")
)

// Money is an amount in minor units (cents). On the wire it is a decimal
// number with at most two fraction digits.
type Money int64

// ParseMoney reads a plain decimal such as "12", "12.5" or "-0.75".
// Exponents and more than two fraction digits are rejected.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) || (hasFrac && !isDigits(frac)) {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidMoney)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%q: %w", s, ErrMoneyPrecision)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > math.MaxInt64/100-1 {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidMoney)
	}
	frac += strings.Repeat("0", 2-len(frac))
	cents, _ := strconv.ParseInt(frac, 10, 64)

	m := Money(units*100 + cents)
	if neg {
		m = -m
	}
	return m, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d", sign, int64(m)/100, int64(m)%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both a JSON number and a quoted decimal.
func (m *Money) UnmarshalJSON(b []byte) error {
	parsed, err := ParseMoney(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
