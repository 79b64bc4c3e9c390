// Package calendar implements working-day arithmetic for delivery promises.
// A working day is any day that is not Saturday or Sunday; public holidays are
// out of scope.
package calendar

import "time"

// AddWorkingDays advances base by n days, skipping Saturdays and Sundays.
// The time of day is preserved and the result is monotonic in n.
func AddWorkingDays(base time.Time, n int) time.Time {
	result := base
	for i := 0; i < n; i++ {
		result = result.AddDate(0, 0, 1)
		for isWeekend(result) {
			result = result.AddDate(0, 0, 1)
		}
	}
	return result
}

// NormalizeWeekendOrderTime maps orders placed Saturday at or after 12:00, or
// any time on Sunday, to the following Monday 08:00. Orders placed at other
// times pass through unchanged.
func NormalizeWeekendOrderTime(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		if t.Hour() < 12 {
			return t
		}
		return mondayMorning(t.AddDate(0, 0, 2))
	case time.Sunday:
		return mondayMorning(t.AddDate(0, 0, 1))
	default:
		return t
	}
}

// ShiftSundayToMonday moves a date landing on Sunday to the next day,
// preserving the time of day.
func ShiftSundayToMonday(d time.Time) time.Time {
	if d.Weekday() == time.Sunday {
		return d.AddDate(0, 0, 1)
	}
	return d
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func mondayMorning(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 8, 0, 0, 0, d.Location())
}
