package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResolveDate turns "d" or "d/m" into the nearest matching date on or after
// now. The result keeps now's wall clock and location, so it never precedes
// now. Today counts as not yet passed.
//
// With only a day, the current month is tried first and rolled to the next
// month (December rolls into January of the next year) when the day already
// passed. With day and month, the current year is tried first and rolled to
// the next year. Dates that do not exist fail with ErrInvalidDate instead of
// being normalized into the following month.
func ResolveDate(input string, now time.Time) (time.Time, error) {
	day, month, hasMonth, err := parseDayMonth(input)
	if err != nil {
		return time.Time{}, err
	}

	today := dateOf(now)
	if !hasMonth {
		candidate, ok := civilDate(now.Year(), now.Month(), day, now)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: day %d does not exist in %s", ErrInvalidDate, day, now.Month())
		}
		if !dateOf(candidate).Before(today) {
			return candidate, nil
		}
		year, next := now.Year(), now.Month()+1
		if now.Month() == time.December {
			year, next = now.Year()+1, time.January
		}
		candidate, ok = civilDate(year, next, day, now)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: day %d does not exist in %s", ErrInvalidDate, day, next)
		}
		return candidate, nil
	}

	candidate, ok := civilDate(now.Year(), time.Month(month), day, now)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %02d/%02d/%d", ErrInvalidDate, day, month, now.Year())
	}
	if !dateOf(candidate).Before(today) {
		return candidate, nil
	}
	candidate, ok = civilDate(now.Year()+1, time.Month(month), day, now)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %02d/%02d/%d", ErrInvalidDate, day, month, now.Year()+1)
	}
	return candidate, nil
}

// IsClosed reports whether date falls on a non-operating day (Sunday).
func IsClosed(date time.Time) bool {
	return date.Weekday() == time.Sunday
}

func parseDayMonth(input string) (day, month int, hasMonth bool, err error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) == 0 || len(parts) > 2 {
		return 0, 0, false, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	day, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || day < 1 || day > 31 {
		return 0, 0, false, fmt.Errorf("%w: day %q", ErrInvalidDate, parts[0])
	}
	if len(parts) == 1 {
		return day, 0, false, nil
	}
	month, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false, fmt.Errorf("%w: month %q", ErrInvalidDate, parts[1])
	}
	return day, month, true, nil
}

// civilDate builds year-month-day at ref's clock, rejecting values that
// time.Date would silently normalize.
func civilDate(year int, month time.Month, day int, ref time.Time) (time.Time, bool) {
	t := time.Date(year, month, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
