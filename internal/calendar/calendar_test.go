package calendar_test

import (
	"testing"
	"time"

	"github.com/minh-tn/salesorder-core/internal/calendar"
)

func date(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestAddWorkingDaysSkipsWeekend(t *testing.T) {
	// Wednesday + 2 working days = Friday.
	wed := date(2025, time.June, 4, 10, 0)
	got := calendar.AddWorkingDays(wed, 2)
	want := date(2025, time.June, 6, 10, 0)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}

	// Friday + 1 working day lands on Monday, never Saturday.
	fri := date(2025, time.June, 6, 9, 30)
	got = calendar.AddWorkingDays(fri, 1)
	want = date(2025, time.June, 9, 9, 30)
	if !got.Equal(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestAddWorkingDaysZero(t *testing.T) {
	sat := date(2025, time.June, 7, 14, 0)
	if got := calendar.AddWorkingDays(sat, 0); !got.Equal(sat) {
		t.Fatalf("zero days must not move the date, got %v", got)
	}
}

func TestAddWorkingDaysPreservesTimeOfDay(t *testing.T) {
	thu := date(2025, time.June, 5, 16, 45)
	got := calendar.AddWorkingDays(thu, 3)
	if got.Hour() != 16 || got.Minute() != 45 {
		t.Fatalf("time of day changed: %v", got)
	}
	if got.Weekday() == time.Saturday || got.Weekday() == time.Sunday {
		t.Fatalf("landed on weekend: %v", got)
	}
}

func TestAddWorkingDaysMonotonic(t *testing.T) {
	base := date(2025, time.June, 2, 8, 0)
	prev := calendar.AddWorkingDays(base, 0)
	for n := 1; n <= 14; n++ {
		next := calendar.AddWorkingDays(base, n)
		if !next.After(prev) {
			t.Fatalf("n=%d: %v not after %v", n, next, prev)
		}
		prev = next
	}
}

func TestNormalizeWeekendOrderTime(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"weekday passes through", date(2025, time.June, 4, 15, 0), date(2025, time.June, 4, 15, 0)},
		{"saturday morning passes through", date(2025, time.June, 7, 11, 59), date(2025, time.June, 7, 11, 59)},
		{"saturday noon moves to monday", date(2025, time.June, 7, 12, 0), date(2025, time.June, 9, 8, 0)},
		{"saturday afternoon moves to monday", date(2025, time.June, 7, 14, 0), date(2025, time.June, 9, 8, 0)},
		{"sunday moves to monday", date(2025, time.June, 8, 9, 0), date(2025, time.June, 9, 8, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calendar.NormalizeWeekendOrderTime(tc.in)
			if !got.Equal(tc.want) {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestShiftSundayToMonday(t *testing.T) {
	sun := date(2025, time.June, 8, 10, 30)
	got := calendar.ShiftSundayToMonday(sun)
	if got.Weekday() != time.Monday {
		t.Fatalf("expected Monday got %v", got.Weekday())
	}
	if got.Hour() != 10 || got.Minute() != 30 {
		t.Fatalf("time of day changed: %v", got)
	}

	mon := date(2025, time.June, 9, 10, 30)
	if got := calendar.ShiftSundayToMonday(mon); !got.Equal(mon) {
		t.Fatalf("non-Sunday must pass through, got %v", got)
	}
}
