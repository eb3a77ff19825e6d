package imaging

import (
	"fmt"
	"time"
)

// DateLayout is the zero-padded calendar date format used for birthdays and
// scheduled dates. Lexicographic order on it equals chronological order.
const DateLayout = "2006-01-02"

// ChildAgeLimit is the first age classified as adult.
const ChildAgeLimit = 12

// Age returns the number of complete years between birth and ref.
func Age(birth, ref time.Time) int {
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// AgeOn computes the age at refDate from ISO date strings. An empty birthday
// yields 0, which callers must read as "unknown" rather than a newborn.
func AgeOn(birthday, refDate string) (int, error) {
	if birthday == "" {
		return 0, nil
	}
	b, err := ParseDate(birthday)
	if err != nil {
		return 0, fmt.Errorf("birthday: %w", err)
	}
	r, err := ParseDate(refDate)
	if err != nil {
		return 0, fmt.Errorf("reference date: %w", err)
	}
	return Age(b, r), nil
}

// Category classifies an age into the dose-template age bucket.
func Category(age int) AgeCategory {
	if age < ChildAgeLimit {
		return AgeChild
	}
	return AgeAdult
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate renders t as YYYY-MM-DD in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
