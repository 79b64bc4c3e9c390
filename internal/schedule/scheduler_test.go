package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/minh-tn/salesorder-core/internal/promo"
	"github.com/minh-tn/salesorder-core/internal/schedule"
)

func date(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func newScheduler() *schedule.Scheduler {
	return &schedule.Scheduler{
		WarehouseLeadDays:    map[string]int{"HCM": 2, "DAD": 3},
		UrgentLeadDays:       5,
		SundayShiftWarehouse: "HCM",
		UrgentMarkers:        []string{"gấp"},
		RetailChannel:        "Shop",
		Now:                  func() time.Time { return date(2025, time.June, 4, 10, 0) },
	}
}

func TestPromiseDistrictCommitment(t *testing.T) {
	s := newScheduler()
	// Wednesday 10:00 + 2 working days = Friday 10:00.
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		DistrictLeadDays: 2,
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
	})
	require.Equal(t, schedule.BranchDistrict, branch)
	require.True(t, got.Equal(date(2025, time.June, 6, 10, 0)), "got %v", got)
}

func TestPromiseDistrictOverridesOutOfStock(t *testing.T) {
	s := newScheduler()
	// The district commitment wins even when the line is out of stock.
	_, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		DistrictLeadDays: 1,
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 10,
	})
	require.Equal(t, schedule.BranchDistrict, branch)
}

func TestPromiseDistrictFridayLandsMonday(t *testing.T) {
	s := newScheduler()
	// Friday + 1 working day skips the weekend entirely.
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 6, 15, 0),
		DistrictLeadDays: 1,
		StockKnown:       true,
		AvailableStock:   10,
		RequestedBaseQty: 1,
	})
	require.Equal(t, schedule.BranchDistrict, branch)
	require.Equal(t, time.Monday, got.Weekday())
	require.True(t, got.Equal(date(2025, time.June, 9, 15, 0)), "got %v", got)
}

func TestPromiseOutOfStockWarehouse(t *testing.T) {
	s := newScheduler()
	// Saturday 14:00 normalizes to Monday 08:00, then 2 working days = Wednesday 08:00.
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 7, 14, 0),
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 5,
	})
	require.Equal(t, schedule.BranchOutOfStock, branch)
	require.True(t, got.Equal(date(2025, time.June, 11, 8, 0)), "got %v", got)
}

func TestPromiseOutOfStockSaturdayMorningKeepsTime(t *testing.T) {
	s := newScheduler()
	// Saturday before noon is not normalized; working-day arithmetic starts
	// from the raw timestamp.
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "DAD",
		OrderedAt:        date(2025, time.June, 7, 9, 0),
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 5,
	})
	require.Equal(t, schedule.BranchOutOfStock, branch)
	// Sat 09:00 + 3 working days = Wednesday 09:00.
	require.True(t, got.Equal(date(2025, time.June, 11, 9, 0)), "got %v", got)
}

func TestPromiseUrgentPromotionEscalatesLead(t *testing.T) {
	s := newScheduler()
	urgent := &promo.Promotion{ID: "KM-URGENT", UrgencyTier: 1}
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 2, 10, 0), // Monday
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 5,
		Promotion:        urgent,
	})
	require.Equal(t, schedule.BranchOutOfStock, branch)
	// 5 working days from Monday = next Monday.
	require.True(t, got.Equal(date(2025, time.June, 9, 10, 0)), "got %v", got)
}

func TestPromiseUrgentByNameMarker(t *testing.T) {
	s := newScheduler()
	marked := &promo.Promotion{ID: "KM-X", Name: "Hàng GẤP tháng 6"}
	got, _ := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 2, 10, 0),
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 5,
		Promotion:        marked,
	})
	require.True(t, got.Equal(date(2025, time.June, 9, 10, 0)), "got %v", got)
}

func TestPromiseUnknownStockSkipsOutOfStockBranches(t *testing.T) {
	s := newScheduler()
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       false,
		RequestedBaseQty: 100,
	})
	require.Equal(t, schedule.BranchDefault, branch)
	require.True(t, got.Equal(date(2025, time.June, 5, 10, 0)), "got %v", got)
}

func TestPromisePromotionHalfDays(t *testing.T) {
	s := newScheduler()
	p := &promo.Promotion{ID: "KM-LT", LeadtimeHalfDays: 3}
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
		Promotion:        p,
	})
	require.Equal(t, schedule.BranchPromotionHours, branch)
	// 3 half days = 36 hours.
	require.True(t, got.Equal(date(2025, time.June, 5, 22, 0)), "got %v", got)
}

func TestPromisePromotionHalfDaysCategoryGate(t *testing.T) {
	s := newScheduler()
	for _, category := range []string{"", "Manufacturer", "manufacturer"} {
		p := &promo.Promotion{ID: "KM-LT", LeadtimeHalfDays: 2, Category: category}
		_, branch := s.Promise(schedule.Input{
			WarehouseCode:    "HCM",
			OrderedAt:        date(2025, time.June, 4, 10, 0),
			StockKnown:       true,
			AvailableStock:   100,
			RequestedBaseQty: 1,
			Promotion:        p,
		})
		require.Equal(t, schedule.BranchPromotionHours, branch, "category %q", category)
	}

	distributor := &promo.Promotion{ID: "KM-LT", LeadtimeHalfDays: 2, Category: "Distributor"}
	_, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
		Promotion:        distributor,
	})
	require.NotEqual(t, schedule.BranchPromotionHours, branch)
}

func TestPromisePromotionHoursSundayShift(t *testing.T) {
	s := newScheduler()
	// Saturday 10:00 + 2 half days lands on Sunday; the designated warehouse
	// moves it to Monday, others keep Sunday.
	p := &promo.Promotion{ID: "KM-LT", LeadtimeHalfDays: 2}
	in := schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 7, 10, 0),
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
		Promotion:        p,
	}
	got, _ := s.Promise(in)
	require.Equal(t, time.Monday, got.Weekday())
	require.True(t, got.Equal(date(2025, time.June, 9, 10, 0)), "got %v", got)

	in.WarehouseCode = "DAD"
	got, _ = s.Promise(in)
	require.Equal(t, time.Sunday, got.Weekday())
}

func TestPromiseRetailChannel(t *testing.T) {
	s := newScheduler()
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
		Channel:          "shop",
	})
	require.Equal(t, schedule.BranchRetailChannel, branch)
	// No district figure: the promise stays at the order timestamp.
	require.True(t, got.Equal(date(2025, time.June, 4, 10, 0)), "got %v", got)
}

func TestPromiseStockFallback(t *testing.T) {
	s := newScheduler()
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "UNKNOWN",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       true,
		AvailableStock:   0,
		RequestedBaseQty: 10,
		ProductLeadDays:  7,
	})
	require.Equal(t, schedule.BranchStockFallback, branch)
	// Calendar days from today, weekends included.
	require.True(t, got.Equal(date(2025, time.June, 11, 10, 0)), "got %v", got)
}

func TestPromiseDefault(t *testing.T) {
	s := newScheduler()
	got, branch := s.Promise(schedule.Input{
		WarehouseCode:    "HCM",
		OrderedAt:        date(2025, time.June, 4, 10, 0),
		StockKnown:       true,
		AvailableStock:   100,
		RequestedBaseQty: 1,
	})
	require.Equal(t, schedule.BranchDefault, branch)
	require.True(t, got.Equal(date(2025, time.June, 5, 10, 0)), "got %v", got)
}

func TestPromiseZeroValueScheduler(t *testing.T) {
	var s schedule.Scheduler
	got, branch := s.Promise(schedule.Input{
		OrderedAt: date(2025, time.June, 4, 10, 0),
	})
	require.Equal(t, schedule.BranchDefault, branch)
	require.True(t, got.Equal(date(2025, time.June, 5, 10, 0)), "got %v", got)
}
