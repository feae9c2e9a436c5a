package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice разбирает цену, введённую с точкой или запятой
func ParsePrice(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: price is required", ErrValidation)
	}
	if strings.Count(raw, ",")+strings.Count(raw, ".") > 1 {
		return decimal.Zero, fmt.Errorf("%w: malformed price %q", ErrValidation, s)
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed price %q", ErrValidation, s)
	}
	if err := CheckPrice(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckPrice цена неотрицательна и не точнее сантима, как столбец DECIMAL(10,2)
func CheckPrice(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("%w: price %s has more than 2 decimal places", ErrValidation, d)
	}
	return nil
}

// FormatMoney два знака после точки
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
