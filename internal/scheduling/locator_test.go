package scheduling

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourBooking(id, title string, start time.Time) Booking {
	return Booking{ID: id, Title: title, Start: start, End: start.Add(time.Hour)}
}

func TestLocateBooking(t *testing.T) {
	bookings := []Booking{
		hourBooking("b-0945", "Retorno Ana", at(2025, 7, 25, 9, 45)),
		hourBooking("b-0900", "Consulta Maria", at(2025, 7, 25, 9, 0)),
		hourBooking("b-0915", "Reunião João", at(2025, 7, 25, 9, 15)),
	}
	target := at(2025, 7, 25, 9, 20)

	tests := []struct {
		name     string
		fragment string
		wantID   string
	}{
		{"no fragment returns earliest in window", "", "b-0900"},
		{"fragment matches case-insensitively", "JOÃO", "b-0915"},
		{"fragment matches substring", "ana", "b-0945"},
		{"unmatched fragment falls back to earliest", "Pedro", "b-0900"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LocateBooking(bookings, target, tt.fragment)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestLocateBookingIgnoresOutsideWindow(t *testing.T) {
	bookings := []Booking{
		hourBooking("early", "Consulta", at(2025, 7, 25, 7, 0)),
		hourBooking("late", "Consulta", at(2025, 7, 25, 10, 0)),
	}

	_, err := LocateBooking(bookings, at(2025, 7, 25, 9, 0), "")
	assert.True(t, errors.Is(err, ErrBookingNotFound))

	got, err := LocateBooking(bookings, at(2025, 7, 25, 9, 30), "")
	require.NoError(t, err)
	assert.Equal(t, "late", got.ID)
}

func TestLocateBookingEmpty(t *testing.T) {
	_, err := LocateBooking(nil, at(2025, 7, 25, 9, 0), "consulta")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestLocatorWindow(t *testing.T) {
	from, to := LocatorWindow(at(2025, 7, 25, 9, 20))
	assert.True(t, at(2025, 7, 25, 8, 50).Equal(from))
	assert.True(t, at(2025, 7, 25, 9, 50).Equal(to))
}
