package promo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/minh-tn/salesorder-core/internal/order"
)

// Resolve re-evaluates percent promotions across the whole line set and
// returns a new slice; the input is never mutated.
//
// candidates maps product codes to the catalog result for that product, in
// catalog order. Lines frozen by a manual fixed-amount discount keep their
// discount untouched but still contribute to scope totals, so adding a frozen
// line can flip other lines eligible. The caller must re-run Resolve after
// every committed line-set change: scope totals are only valid for the
// current full line set.
//
// Money fields are not recomputed here; run the price calculator over the
// result.
func Resolve(lines []order.Line, candidates map[string][]Promotion, paymentTerms string, now time.Time) []order.Line {
	out := make([]order.Line, len(lines))
	copy(out, lines)

	totals := make(map[string]decimal.Decimal)
	scopeTotal := func(p Promotion) decimal.Decimal {
		key := NormalizeID(p.ID)
		if t, ok := totals[key]; ok {
			return t
		}
		total := decimal.Zero
		for _, l := range lines {
			if p.AppliesTo(l) {
				total = total.Add(l.GrossValue())
			}
		}
		totals[key] = total
		return total
	}

	for i := range out {
		line := &out[i]
		if line.Frozen() {
			continue
		}

		var survivors []Promotion
		for _, p := range candidates[line.ProductCode] {
			if p.Kind != KindPercent {
				continue
			}
			if !p.InWindow(now) || !p.AppliesTo(*line) || !p.MatchesPaymentTerms(paymentTerms) {
				continue
			}
			if !p.ThresholdMet(scopeTotal(p)) {
				continue
			}
			survivors = append(survivors, p)
		}

		if len(survivors) == 0 {
			clearPromotion(line)
			continue
		}

		chosen, ok := keepCurrent(*line, survivors)
		if !ok {
			chosen = bestDiscount(survivors, scopeTotal)
		}
		line.AppliedPromotion = NormalizeID(chosen.ID)
		line.Eligible = true
		line.DiscountPercent = chosen.EffectiveValue(scopeTotal(chosen))
		line.DiscountAmount = 0
	}
	return out
}

// keepCurrent implements the stability tie-break: a still-valid applied
// promotion is never swapped for an equally good alternative.
func keepCurrent(l order.Line, survivors []Promotion) (Promotion, bool) {
	if l.AppliedPromotion == "" {
		return Promotion{}, false
	}
	for _, p := range survivors {
		if SameID(p.ID, l.AppliedPromotion) {
			return p, true
		}
	}
	return Promotion{}, false
}

// bestDiscount picks the highest effective discount; ties keep catalog order.
func bestDiscount(survivors []Promotion, scopeTotal func(Promotion) decimal.Decimal) Promotion {
	best := survivors[0]
	bestValue := best.EffectiveValue(scopeTotal(best))
	for _, p := range survivors[1:] {
		value := p.EffectiveValue(scopeTotal(p))
		if value.GreaterThan(bestValue) {
			best = p
			bestValue = value
		}
	}
	return best
}

func clearPromotion(l *order.Line) {
	l.AppliedPromotion = ""
	l.Eligible = false
	l.DiscountPercent = decimal.Zero
	l.DiscountAmount = 0
}
