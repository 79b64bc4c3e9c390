package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// ErrNegativeDiscountedPrice is returned when the configured discounts push a
// unit price below zero. This is a configuration error on the promotion or the
// manual discount, never silently floored to zero.
var ErrNegativeDiscountedPrice = errors.New("pricing: discounted unit price is negative")

var (
	one        = decimal.NewFromInt(1)
	oneHundred = decimal.NewFromInt(100)
)

// Inputs carries everything needed to price a single order line.
type Inputs struct {
	BasePrice       Money
	Quantity        int64
	DiscountPercent decimal.Decimal
	DiscountAmount  Money
	VATRate         decimal.Decimal
	// SurchargeRate is zero unless the caller resolved the narrow
	// business-type/VAT-mode combination that activates it.
	SurchargeRate decimal.Decimal
}

// Breakdown aggregates computed pricing components for one line.
type Breakdown struct {
	// DiscountedUnit is the unit price after percent and fixed discounts.
	DiscountedUnit decimal.Decimal
	// FinalUnit includes the surcharge. It is informational only and is
	// excluded from the subtotal and the VAT base.
	FinalUnit decimal.Decimal
	Subtotal  Money
	VATAmount Money
	Total     Money
}

// Price derives the money fields of a line from its base price and discounts.
//
// Subtotal and VAT are rounded independently, half away from zero; the line
// total is the sum of the two already-rounded figures. Order-level totals must
// be computed by summing line totals, never by re-rounding a grand total.
func Price(in Inputs) (Breakdown, error) {
	base := decimal.NewFromInt(in.BasePrice)
	qty := decimal.NewFromInt(in.Quantity)

	keep := one.Sub(in.DiscountPercent.Div(oneHundred))
	discounted := base.Mul(keep).Sub(decimal.NewFromInt(in.DiscountAmount))
	if discounted.IsNegative() {
		return Breakdown{}, ErrNegativeDiscountedPrice
	}
	final := discounted.Mul(one.Add(in.SurchargeRate))

	subtotal := qty.Mul(discounted).Round(0).IntPart()
	vat := decimal.NewFromInt(subtotal).Mul(in.VATRate).Div(oneHundred).Round(0).IntPart()

	return Breakdown{
		DiscountedUnit: discounted,
		FinalUnit:      final,
		Subtotal:       subtotal,
		VATAmount:      vat,
		Total:          subtotal + vat,
	}, nil
}

// GrossValue returns the pre-discount, VAT-inclusive value of a line. This is
// the figure promotion thresholds are evaluated against, so manual discounts
// and surcharges never influence eligibility.
func GrossValue(basePrice Money, quantity int64, vatRate decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(basePrice).
		Mul(decimal.NewFromInt(quantity)).
		Mul(one.Add(vatRate.Div(oneHundred)))
}
