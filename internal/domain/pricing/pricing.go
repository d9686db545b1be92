package pricing

import (
	"errors"

	"stayloop/internal/domain/shared/money"
)

var (
	ErrInvalidNights   = errors.New("pricing: nights must be positive")
	ErrInvalidBaseRate = errors.New("pricing: base price must be positive")
)

// Marketplace-wide rates applied on top of the nightly subtotal.
const (
	ServiceFeePercent = 14
	TaxPercent        = 8
)

// Quote is the immutable pricing snapshot captured when a booking is created.
// It never changes afterwards, even if the listing is repriced.
type Quote struct {
	BasePrice   money.Money
	Nights      int
	Subtotal    money.Money
	CleaningFee money.Money
	ServiceFee  money.Money
	Taxes       money.Money
	Total       money.Money
}

// Compute derives the full price breakdown: subtotal = base x nights, the
// service fee and taxes as fixed percentages of the subtotal, and the total as
// the sum of all components plus the cleaning fee. All arithmetic stays in
// integer cents; percentages round to the nearest cent.
func Compute(basePrice money.Money, nights int, cleaningFee money.Money) (Quote, error) {
	if nights <= 0 {
		return Quote{}, ErrInvalidNights
	}
	if basePrice.Amount <= 0 || basePrice.Currency == "" {
		return Quote{}, ErrInvalidBaseRate
	}
	if cleaningFee.Currency == "" {
		cleaningFee = money.Money{Amount: cleaningFee.Amount, Currency: basePrice.Currency}
	}

	subtotal := basePrice.Multiply(int64(nights))
	serviceFee := subtotal.Percent(ServiceFeePercent)
	taxes := subtotal.Percent(TaxPercent)

	total := subtotal
	for _, component := range []money.Money{cleaningFee, serviceFee, taxes} {
		sum, err := total.Add(component)
		if err != nil {
			return Quote{}, err
		}
		total = sum
	}

	return Quote{
		BasePrice:   basePrice,
		Nights:      nights,
		Subtotal:    subtotal,
		CleaningFee: cleaningFee,
		ServiceFee:  serviceFee,
		Taxes:       taxes,
		Total:       total,
	}, nil
}
