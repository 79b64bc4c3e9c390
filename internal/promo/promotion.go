package promo

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minh-tn/salesorder-core/internal/order"
)

// Kind discriminates how a promotion discounts a line.
type Kind string

const (
	// KindPercent discounts the unit price by a percentage.
	KindPercent Kind = "percent"
	// KindFixedAmount discounts the unit price by a fixed amount in minor
	// units. Fixed-amount discounts are entered manually and freeze the line
	// against automatic percent resolution.
	KindFixedAmount Kind = "fixed_amount"
)

// Promotion is an immutable snapshot of a campaign as returned by the
// catalog. Promotions are fetched fresh per resolution pass and compared by
// normalized ID.
type Promotion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
	// BaseValue is the discount percent for percent promotions or the amount
	// in minor units for fixed-amount promotions.
	BaseValue decimal.Decimal `json:"baseValue"`
	// TierThresholds and TierValues describe volume tiers: when the scope
	// total reaches a threshold, the matching value replaces BaseValue. The
	// slices are parallel and sorted ascending by threshold.
	TierThresholds []int64           `json:"tierThresholds,omitempty"`
	TierValues     []decimal.Decimal `json:"tierValues,omitempty"`
	// MinScopeTotal is the aggregate order value (pre-discount, VAT
	// inclusive, minor units) required before the promotion applies.
	// Zero means no condition.
	MinScopeTotal int64 `json:"totalAmountCondition"`

	ProductCodes      []string `json:"productCodesScope,omitempty"`
	ProductGroupCodes []string `json:"productGroupCodesScope,omitempty"`
	PaymentTermsScope []string `json:"paymentTermsScope,omitempty"`

	ValidFrom *time.Time `json:"validFrom,omitempty"`
	ValidTo   *time.Time `json:"validTo,omitempty"`

	// UrgencyTier marks expedited supplier programs; positive values escalate
	// out-of-stock lead times. Zero means the tier is unknown and the legacy
	// name-marker match decides (see Urgent).
	UrgencyTier int  `json:"urgencyTier,omitempty"`
	Secondary   bool `json:"secondaryDiscountFlag,omitempty"`

	// LeadtimeHalfDays carries the legacy promotion lead time expressed in
	// half days. Category gates which promotions may use it.
	LeadtimeHalfDays int    `json:"leadtimeHalfDays,omitempty"`
	Category         string `json:"category,omitempty"`
}

// NormalizeID canonicalises promotion identifiers for comparison.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// SameID reports whether two promotion identifiers match after normalization.
func SameID(a, b string) bool {
	return NormalizeID(a) != "" && NormalizeID(a) == NormalizeID(b)
}

// InWindow reports whether the promotion validity window contains now.
// A missing bound is open-ended.
func (p Promotion) InWindow(now time.Time) bool {
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && now.After(*p.ValidTo) {
		return false
	}
	return true
}

// AppliesTo reports whether a line falls inside the promotion scope. A
// promotion with no product or group scope covers every line.
func (p Promotion) AppliesTo(l order.Line) bool {
	if len(p.ProductCodes) == 0 && len(p.ProductGroupCodes) == 0 {
		return true
	}
	for _, code := range p.ProductCodes {
		if strings.EqualFold(strings.TrimSpace(code), strings.TrimSpace(l.ProductCode)) {
			return true
		}
	}
	if l.ProductGroupCode != "" {
		for _, code := range p.ProductGroupCodes {
			if strings.EqualFold(strings.TrimSpace(code), strings.TrimSpace(l.ProductGroupCode)) {
				return true
			}
		}
	}
	return false
}

// MatchesPaymentTerms reports whether the promotion is open to the given
// payment terms. An empty scope matches all terms.
func (p Promotion) MatchesPaymentTerms(terms string) bool {
	if len(p.PaymentTermsScope) == 0 {
		return true
	}
	for _, t := range p.PaymentTermsScope {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(terms)) {
			return true
		}
	}
	return false
}

// ThresholdMet reports whether the scope total satisfies the promotion's
// minimum order condition. A missing or zero condition always passes.
func (p Promotion) ThresholdMet(scopeTotal decimal.Decimal) bool {
	if p.MinScopeTotal <= 0 {
		return true
	}
	return scopeTotal.GreaterThanOrEqual(decimal.NewFromInt(p.MinScopeTotal))
}

// EffectiveValue resolves the discount value at the given scope total: the
// value of the highest tier whose threshold is met, or BaseValue when no tier
// applies.
func (p Promotion) EffectiveValue(scopeTotal decimal.Decimal) decimal.Decimal {
	value := p.BaseValue
	n := len(p.TierThresholds)
	if len(p.TierValues) < n {
		n = len(p.TierValues)
	}
	for i := 0; i < n; i++ {
		if scopeTotal.GreaterThanOrEqual(decimal.NewFromInt(p.TierThresholds[i])) {
			value = p.TierValues[i]
		}
	}
	return value
}

// Urgent reports whether the promotion signals an expedited supplier
// program. A positive UrgencyTier decides outright; otherwise the legacy
// name-marker match is consulted as a migration shim.
func (p Promotion) Urgent(markers []string) bool {
	if p.UrgencyTier > 0 {
		return true
	}
	return NameMatchesMarker(p.Name, markers)
}

// Catalog returns candidate promotions for a product and customer context.
// Implementations must treat the lookup as read-only and idempotent.
type Catalog interface {
	Query(ctx context.Context, productCode, customerCode, paymentTerms string) ([]Promotion, error)
}
