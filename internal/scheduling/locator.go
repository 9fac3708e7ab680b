package scheduling

import (
	"sort"
	"strings"
	"time"
)

// LocatorTolerance is how far from the target time a booking may start and
// still be considered for cancellation.
const LocatorTolerance = 30 * time.Minute

// LocatorWindow returns the [target-30m, target+30m] search window.
func LocatorWindow(target time.Time) (time.Time, time.Time) {
	return target.Add(-LocatorTolerance), target.Add(LocatorTolerance)
}

// LocateBooking picks the booking a cancellation refers to.
//
// Bookings outside the locator window are ignored. When fragment is set,
// the first booking (by start time) whose title contains it, ignoring case,
// wins. Otherwise, and also when the fragment matches nothing, the earliest
// booking in the window is returned.
func LocateBooking(bookings []Booking, target time.Time, fragment string) (Booking, error) {
	from, to := LocatorWindow(target)

	inWindow := make([]Booking, 0, len(bookings))
	for _, b := range bookings {
		end := b.End
		if end.IsZero() || end.Before(b.Start) {
			end = b.Start
		}
		// Provider listings use overlap semantics; a zero-length booking
		// sitting exactly on a bound still counts.
		if !end.Before(from) && !b.Start.After(to) {
			inWindow = append(inWindow, b)
		}
	}
	if len(inWindow) == 0 {
		return Booking{}, ErrBookingNotFound
	}
	sort.SliceStable(inWindow, func(i, j int) bool {
		return inWindow[i].Start.Before(inWindow[j].Start)
	})

	if needle := strings.ToLower(strings.TrimSpace(fragment)); needle != "" {
		for _, b := range inWindow {
			if strings.Contains(strings.ToLower(b.Title), needle) {
				return b, nil
			}
		}
	}
	// TODO: confirm with the calendar owner whether an unmatched title should
	// return not found instead of the earliest booking in the window.
	return inWindow[0], nil
}
