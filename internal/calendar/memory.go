package calendar

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

// ErrEventNotFound is returned by MemoryProvider.DeleteEvent for unknown ids.
var ErrEventNotFound = errors.New("calendar: event not found")

// MemoryProvider keeps events in process. It backs local development and tests.
type MemoryProvider struct {
	mu     sync.Mutex
	events map[string]scheduling.Booking
}

// NewMemoryProvider seeds an in-memory calendar with the given bookings.
func NewMemoryProvider(seed ...scheduling.Booking) *MemoryProvider {
	p := &MemoryProvider{events: make(map[string]scheduling.Booking, len(seed))}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		p.events[b.ID] = b
	}
	return p
}

var _ Provider = (*MemoryProvider)(nil)

func (p *MemoryProvider) ListEvents(ctx context.Context, timeMin, timeMax time.Time) ([]scheduling.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []scheduling.Booking
	for _, b := range p.events {
		if b.End.After(timeMin) && b.Start.Before(timeMax) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}

func (p *MemoryProvider) InsertEvent(ctx context.Context, booking scheduling.Booking) (scheduling.Booking, error) {
	if err := ctx.Err(); err != nil {
		return scheduling.Booking{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	booking.ID = uuid.NewString()
	p.events[booking.ID] = booking
	return booking, nil
}

func (p *MemoryProvider) DeleteEvent(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(p.events, id)
	return nil
}

// Len reports how many events are stored.
func (p *MemoryProvider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
