package order

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minh-tn/salesorder-core/internal/pricing"
)

var (
	// ErrNonPositiveQuantity is returned when a line quantity is zero or negative.
	ErrNonPositiveQuantity = errors.New("order: quantity must be positive")
	// ErrNegativeBasePrice is returned when a line carries a negative base price.
	ErrNegativeBasePrice = errors.New("order: base price must not be negative")
	// ErrInvalidVATRate is returned when the VAT rate falls outside 0..100.
	ErrInvalidVATRate = errors.New("order: vat rate must be between 0 and 100")
	// ErrInvalidDiscount is returned for a negative fixed discount or a percent outside 0..100.
	ErrInvalidDiscount = errors.New("order: discount out of range")
	// ErrMissingProductCode is returned when a line has no product code.
	ErrMissingProductCode = errors.New("order: product code is required")
)

// Line is a single order line. Subtotal, VATAmount and TotalAmount are
// derived fields: they are recomputed on every resolution pass and must never
// be edited directly.
type Line struct {
	ProductCode      string          `json:"productCode"`
	ProductGroupCode string          `json:"productGroupCode,omitempty"`
	Quantity         int64           `json:"quantity"`
	BasePrice        pricing.Money   `json:"basePrice"`
	VATRate          decimal.Decimal `json:"vatRate"`
	DiscountPercent  decimal.Decimal `json:"discountPercent"`
	DiscountAmount   pricing.Money   `json:"discountAmount"`
	AppliedPromotion string          `json:"appliedPromotionId,omitempty"`
	Eligible         bool            `json:"eligibleForPromotion"`
	Subtotal         pricing.Money   `json:"subtotal"`
	VATAmount        pricing.Money   `json:"vatAmount"`
	TotalAmount      pricing.Money   `json:"totalAmount"`
	DeliveryDate     *time.Time      `json:"deliveryDate,omitempty"`
	// ProductLeadDays and BaseQuantity feed delivery scheduling. BaseQuantity
	// is the quantity converted to the warehouse base unit.
	ProductLeadDays int   `json:"productLeadtimeDays,omitempty"`
	BaseQuantity    int64 `json:"requestedBaseQuantity,omitempty"`
}

// Frozen reports whether the line carries a manual fixed-amount discount.
// Frozen lines still count toward promotion scope totals but are never
// rewritten by automatic percent promotions.
func (l Line) Frozen() bool {
	return l.DiscountAmount > 0 && l.DiscountPercent.IsZero()
}

// GrossValue is the pre-discount, VAT-inclusive value used for promotion
// scope totals.
func (l Line) GrossValue() decimal.Decimal {
	return pricing.GrossValue(l.BasePrice, l.Quantity, l.VATRate)
}

// Validate rejects malformed input before any resolution work happens.
// Invalid lines are surfaced to the caller, never silently coerced.
func (l Line) Validate() error {
	if strings.TrimSpace(l.ProductCode) == "" {
		return ErrMissingProductCode
	}
	if l.Quantity <= 0 {
		return ErrNonPositiveQuantity
	}
	if l.BasePrice < 0 {
		return ErrNegativeBasePrice
	}
	if l.VATRate.IsNegative() || l.VATRate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidVATRate
	}
	if l.DiscountAmount < 0 || l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidDiscount
	}
	return nil
}

// Context carries the order-level attributes resolution and scheduling depend
// on. It is immutable for the duration of a pass.
type Context struct {
	WarehouseCode    string    `json:"warehouseCode" validate:"required"`
	VATMode          string    `json:"vatMode"`
	CustomerCode     string    `json:"customerCode,omitempty"`
	CustomerIndustry string    `json:"customerIndustry,omitempty"`
	CustomerChannel  string    `json:"customerChannel,omitempty"`
	DistrictKey      string    `json:"districtKey,omitempty"`
	PaymentTerms     string    `json:"paymentTerms,omitempty"`
	CreatedAt        time.Time `json:"orderCreationTimestamp" validate:"required"`
}

// Order is an ordered sequence of lines; insertion order is display order and
// is preserved by every resolution pass.
type Order struct {
	Lines   []Line  `json:"lines"`
	Context Context `json:"context"`
}

// DistinctProductCodes returns the product codes of the given lines in first
// occurrence order.
func DistinctProductCodes(lines []Line) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		code := strings.TrimSpace(l.ProductCode)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

// TotalAmount sums already-rounded line totals. The grand total is defined as
// this sum; it is never re-rounded.
func TotalAmount(lines []Line) pricing.Money {
	var total pricing.Money
	for _, l := range lines {
		total += l.TotalAmount
	}
	return total
}
