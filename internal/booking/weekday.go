package booking

import "strings"

// BookableDays are the weekdays appointments may target, in calendar order.
// Sunday is a clinic holiday and is never bookable.
var BookableDays = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
}

const holidayDay = "sunday"

// AllDays is BookableDays plus sunday, used by the weekly projection.
var AllDays = append([]string{}, append(BookableDays, holidayDay)...)

// NormalizeDay lowercases and trims a day token. It does not validate.
func NormalizeDay(day string) string {
	return strings.ToLower(strings.TrimSpace(day))
}

// IsBookableDay reports whether the normalized day is Monday through Saturday.
func IsBookableDay(day string) bool {
	for _, d := range BookableDays {
		if day == d {
			return true
		}
	}
	return false
}

// IsSunday reports whether the normalized day is the clinic holiday.
func IsSunday(day string) bool {
	return day == holidayDay
}
