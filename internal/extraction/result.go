package extraction

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

type rawResult struct {
	Action        *string `json:"action"`
	TimeISO       *string `json:"time_iso"`
	Summary       *string `json:"summary"`
	DurationHours any     `json:"duration_hours"`
}

// ParseResult validates an extractor's JSON answer. The object must carry
// action and time_iso; summary and duration_hours are optional. Timestamps
// without an offset are read in loc.
func ParseResult(raw string, loc *time.Location) (scheduling.BookingRequest, error) {
	if loc == nil {
		loc = time.UTC
	}
	body := jsonObject(raw)
	if body == "" {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "no JSON object in result", Raw: raw}
	}

	var parsed rawResult
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		// Models sometimes answer with Python-style dicts.
		relaxed := strings.NewReplacer("'", `"`, "None", "null", "True", "true", "False", "false").Replace(body)
		if err2 := json.Unmarshal([]byte(relaxed), &parsed); err2 != nil {
			return scheduling.BookingRequest{}, &ExtractionError{Reason: "result is not valid JSON", Raw: raw, Err: err}
		}
	}

	if parsed.Action == nil || strings.TrimSpace(*parsed.Action) == "" || parsed.TimeISO == nil || strings.TrimSpace(*parsed.TimeISO) == "" {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "missing required fields action/time_iso", Raw: raw}
	}

	action, err := parseAction(*parsed.Action)
	if err != nil {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "unknown action", Raw: raw, Err: err}
	}
	start, err := parseTimestamp(*parsed.TimeISO, loc)
	if err != nil {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "invalid time_iso", Raw: raw, Err: err}
	}
	duration, err := parseDurationHours(parsed.DurationHours)
	if err != nil {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "invalid duration_hours", Raw: raw, Err: err}
	}

	req := scheduling.BookingRequest{
		Action:   action,
		Start:    start,
		Duration: duration,
	}
	if parsed.Summary != nil {
		req.Title = strings.TrimSpace(*parsed.Summary)
	}
	if req.Action == scheduling.ActionCancel {
		req.Duration = 0
	}
	return req, nil
}

func jsonObject(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

func parseAction(value string) (scheduling.Action, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "criar", "create", "agendar", "marcar":
		return scheduling.ActionCreate, nil
	case "cancelar", "cancel", "desmarcar":
		return scheduling.ActionCancel, nil
	default:
		return "", fmt.Errorf("action %q", value)
	}
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q", value)
}

func parseDurationHours(value any) (time.Duration, error) {
	var hours float64
	switch v := value.(type) {
	case nil:
		return scheduling.DefaultDuration, nil
	case float64:
		hours = v
	case string:
		if strings.TrimSpace(v) == "" {
			return scheduling.DefaultDuration, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", "."), 64)
		if err != nil {
			return 0, err
		}
		hours = f
	default:
		return 0, fmt.Errorf("unsupported type %T", value)
	}
	if math.IsNaN(hours) || hours > scheduling.MaxDuration.Hours() {
		return 0, fmt.Errorf("duration %v hours out of range", hours)
	}
	if hours <= 0 {
		return scheduling.DefaultDuration, nil
	}
	return time.Duration(hours * float64(time.Hour)), nil
}
