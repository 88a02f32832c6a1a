package pricing

import (
	"errors"
	"strconv"
)

// ErrInvalidInput matches every input validation failure raised by this package.
var ErrInvalidInput = errors.New("invalid pricing input")

// Kind identifies which input constraint was violated.
type Kind string

const (
	KindNegativePrice    Kind = "PRICE_NEGATIVE"
	KindNegativeDiscount Kind = "DISCOUNT_NEGATIVE"
	KindDiscountTooLarge Kind = "DISCOUNT_EXCEEDS_MAX"
	KindNegativeTaxRate  Kind = "TAX_RATE_NEGATIVE"
)

var (
	// ErrNegativePrice is returned when a price or line amount is below zero.
	ErrNegativePrice = &InputError{Kind: KindNegativePrice}
	// ErrNegativeDiscount is returned when the discount percentage is below zero.
	ErrNegativeDiscount = &InputError{Kind: KindNegativeDiscount}
	// ErrDiscountTooLarge is returned when the discount percentage exceeds 100.
	ErrDiscountTooLarge = &InputError{Kind: KindDiscountTooLarge}
	// ErrNegativeTaxRate is returned when the tax rate is below zero.
	ErrNegativeTaxRate = &InputError{Kind: KindNegativeTaxRate}
)

// InputError describes a rejected pricing input. Value holds the offending number.
type InputError struct {
	Kind  Kind
	Value float64
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindNegativePrice:
		return "Price cannot be negative"
	case KindNegativeDiscount:
		return "Discount cannot be negative"
	case KindDiscountTooLarge:
		return "Discount cannot exceed 100%"
	case KindNegativeTaxRate:
		return "Tax rate cannot be negative"
	default:
		return "invalid pricing input: " + strconv.FormatFloat(e.Value, 'f', -1, 64)
	}
}

// Is reports kind equality so errors.Is works against the exported sentinels
// regardless of the offending value.
func (e *InputError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	var other *InputError
	if errors.As(target, &other) && other != nil {
		return e.Kind == other.Kind
	}
	return false
}

func inputError(kind Kind, value float64) error {
	return &InputError{Kind: kind, Value: value}
}

// KindOf extracts the violated constraint from err, if it is a pricing input error.
func KindOf(err error) (Kind, bool) {
	var ie *InputError
	if errors.As(err, &ie) && ie != nil {
		return ie.Kind, true
	}
	return "", false
}
