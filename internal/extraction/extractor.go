// Package extraction turns free-text scheduling messages into structured
// booking requests.
package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

// Extractor interprets a scheduling message relative to now.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, text string, now time.Time) (scheduling.BookingRequest, error)
}

// ExtractionError reports a result that is missing required fields or
// cannot be parsed into a booking request.
type ExtractionError struct {
	Reason string
	Raw    string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction: %s: %v", e.Reason, e.Err)
	}
	return "extraction: " + e.Reason
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
