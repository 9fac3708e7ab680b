package scheduling

import (
	"fmt"
	"time"
)

// CalendarWindow is the daily operating window sliced into fixed-length slots.
type CalendarWindow struct {
	OpenHour    int
	OpenMinute  int
	CloseHour   int
	CloseMinute int
	SlotLength  time.Duration
}

// DefaultWindow is 08:00–19:00 in one-hour slots.
func DefaultWindow() CalendarWindow {
	return CalendarWindow{
		OpenHour:   8,
		CloseHour:  19,
		SlotLength: time.Hour,
	}
}

// Validate checks open < close and a positive slot length.
func (w CalendarWindow) Validate() error {
	open := time.Duration(w.OpenHour)*time.Hour + time.Duration(w.OpenMinute)*time.Minute
	closing := time.Duration(w.CloseHour)*time.Hour + time.Duration(w.CloseMinute)*time.Minute
	if open < 0 || closing > 24*time.Hour {
		return fmt.Errorf("scheduling: window %s-%s outside the day", open, closing)
	}
	if open >= closing {
		return fmt.Errorf("scheduling: window opens at %s but closes at %s", open, closing)
	}
	if w.SlotLength <= 0 {
		return fmt.Errorf("scheduling: slot length must be positive, got %s", w.SlotLength)
	}
	return nil
}

// Bounds returns the window's open and close instants on date's calendar day.
func (w CalendarWindow) Bounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	loc := date.Location()
	return time.Date(y, m, d, w.OpenHour, w.OpenMinute, 0, 0, loc),
		time.Date(y, m, d, w.CloseHour, w.CloseMinute, 0, 0, loc)
}

// GenerateSlots enumerates the window's slots on date in ascending order.
// A trailing remainder shorter than SlotLength is not emitted.
func GenerateSlots(date time.Time, w CalendarWindow) []Slot {
	if w.SlotLength <= 0 {
		return nil
	}
	open, closing := w.Bounds(date)
	slots := make([]Slot, 0, int(closing.Sub(open)/w.SlotLength))
	for start := open; !start.Add(w.SlotLength).After(closing); start = start.Add(w.SlotLength) {
		slots = append(slots, Slot{Start: start, End: start.Add(w.SlotLength)})
	}
	return slots
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any
// instant. Intervals that only touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// MarkOccupied returns a copy of slots with Occupied set on every slot that
// overlaps at least one booking. A partial overlap occupies the whole slot.
func MarkOccupied(slots []Slot, bookings []Booking) []Slot {
	marked := make([]Slot, len(slots))
	copy(marked, slots)
	for i := range marked {
		for _, b := range bookings {
			if Overlaps(marked[i].Start, marked[i].End, b.Start, b.End) {
				marked[i].Occupied = true
				break
			}
		}
	}
	return marked
}

// FreeSlots filters out occupied slots, preserving order.
func FreeSlots(slots []Slot) []Slot {
	free := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if !s.Occupied {
			free = append(free, s)
		}
	}
	return free
}
