// Package schedule derives the promised delivery date for an order line from
// a priority cascade: district commitments first, then warehouse stock rules,
// then promotion and channel specific lead times, then a one-working-day
// default.
package schedule

import (
	"strings"
	"time"

	"github.com/minh-tn/salesorder-core/internal/calendar"
	"github.com/minh-tn/salesorder-core/internal/promo"
)

// Branch labels which cascade rule produced a delivery date.
type Branch string

const (
	// BranchDistrict is the per-customer district commitment in working days.
	BranchDistrict Branch = "district_leadtime"
	// BranchOutOfStock is the warehouse-specific out-of-stock lead time.
	BranchOutOfStock Branch = "out_of_stock"
	// BranchPromotionHours is the legacy promotion lead time in half days.
	BranchPromotionHours Branch = "promotion_hours"
	// BranchRetailChannel applies the district figure in half-day units for
	// shop-channel customers.
	BranchRetailChannel Branch = "retail_channel"
	// BranchStockFallback is the generic out-of-stock product lead time.
	BranchStockFallback Branch = "stock_fallback"
	// BranchDefault promises the next working day.
	BranchDefault Branch = "default"
)

// Input bundles the per-line facts the cascade inspects.
type Input struct {
	WarehouseCode string
	OrderedAt     time.Time
	// DistrictLeadDays is the district commitment in working days; zero
	// means no commitment exists.
	DistrictLeadDays int
	ProductLeadDays  int
	RequestedBaseQty int64
	AvailableStock   int64
	// StockKnown is false when the inventory snapshot could not be fetched.
	// Unknown stock skips the out-of-stock branches instead of guessing.
	StockKnown bool
	Promotion  *promo.Promotion
	Channel    string
}

// Scheduler evaluates the delivery cascade. The zero value promises the next
// working day for everything.
type Scheduler struct {
	// WarehouseLeadDays maps recognized warehouses to their out-of-stock
	// lead time in working days.
	WarehouseLeadDays map[string]int
	// UrgentLeadDays replaces the warehouse lead time when the applied
	// promotion belongs to an expedited supplier program.
	UrgentLeadDays int
	// SundayShiftWarehouse names the warehouse whose promises are moved off
	// Sundays as the closing step of every branch.
	SundayShiftWarehouse string
	// UrgentMarkers feed the legacy name-substring urgency detection.
	UrgentMarkers []string
	// RetailChannel is the customer channel priced in half-day units.
	RetailChannel string
	Now           func() time.Time
}

// Promise runs the cascade top to bottom; the first matching branch wins.
//
// Branch ordering is deliberate product policy: a district commitment
// overrides ad-hoc stock and promotion rules even when the item is in stock,
// so an in-stock item in a slow district can be promised later than an
// out-of-stock item in a fast one.
func (s *Scheduler) Promise(in Input) (time.Time, Branch) {
	if in.DistrictLeadDays > 0 {
		// District commitments count literal working days from the raw
		// order timestamp; weekend normalization deliberately does not
		// apply here.
		return s.close(in, calendar.AddWorkingDays(in.OrderedAt, in.DistrictLeadDays)), BranchDistrict
	}

	outOfStock := in.StockKnown && in.RequestedBaseQty > in.AvailableStock

	if outOfStock {
		if lead, ok := s.WarehouseLeadDays[in.WarehouseCode]; ok {
			if in.Promotion != nil && in.Promotion.Urgent(s.UrgentMarkers) {
				lead = s.UrgentLeadDays
			}
			orderTime := calendar.NormalizeWeekendOrderTime(in.OrderedAt)
			return s.close(in, calendar.AddWorkingDays(orderTime, lead)), BranchOutOfStock
		}
	}

	if p := in.Promotion; p != nil && p.LeadtimeHalfDays > 0 && legacyCategory(p.Category) {
		d := in.OrderedAt.Add(time.Duration(p.LeadtimeHalfDays) * 12 * time.Hour)
		return s.close(in, d), BranchPromotionHours
	}

	if s.RetailChannel != "" && strings.EqualFold(in.Channel, s.RetailChannel) {
		d := in.OrderedAt.Add(time.Duration(in.DistrictLeadDays) * 12 * time.Hour)
		return s.close(in, d), BranchRetailChannel
	}

	if outOfStock {
		d := s.now().AddDate(0, 0, in.ProductLeadDays)
		return s.close(in, d), BranchStockFallback
	}

	return s.close(in, calendar.AddWorkingDays(in.OrderedAt, 1)), BranchDefault
}

func (s *Scheduler) close(in Input, d time.Time) time.Time {
	if s.SundayShiftWarehouse != "" && strings.EqualFold(in.WarehouseCode, s.SundayShiftWarehouse) {
		return calendar.ShiftSundayToMonday(d)
	}
	return d
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func legacyCategory(category string) bool {
	trimmed := strings.TrimSpace(category)
	return trimmed == "" || strings.EqualFold(trimmed, "Manufacturer")
}
