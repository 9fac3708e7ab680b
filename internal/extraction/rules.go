package extraction

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-scheduler/internal/scheduling"
)

var (
	dayMonthRe  = regexp.MustCompile(`(\d{1,2})\s*/\s*(\d{1,2})`)
	dayOnlyRe   = regexp.MustCompile(`(?:^|\s)dia\s+(\d{1,2})(?:\D|$)`)
	clockRe     = regexp.MustCompile(`(\d{1,2})\s*(?:h|:)\s*(\d{2})?`)
	atClockRe   = regexp.MustCompile(`(?:^|\s)(?:às|as)\s+(\d{1,2})(?:\s*(?:h|:)\s*(\d{2})?)?(?:[^\d/]|$)`)
	subjectRe   = regexp.MustCompile(`(?i)\bsobre\s+(.+)$`)
	// Duration phrases: "1h30 de massagem", "2 horas", "1,5 hora", "30 minutos".
	durationRules = []struct {
		re    *regexp.Regexp
		parse func(a, b string) time.Duration
	}{
		{regexp.MustCompile(`(\d{1,2})\s*h\s*(\d{2})?\s+de\b`), func(h, m string) time.Duration {
			return time.Duration(atoi(h))*time.Hour + time.Duration(atoi(m))*time.Minute
		}},
		{regexp.MustCompile(`(\d{1,2})(?:[.,](\d))?\s*horas?\b`), func(h, tenths string) time.Duration {
			return time.Duration(atoi(h))*time.Hour + time.Duration(atoi(tenths))*6*time.Minute
		}},
		{regexp.MustCompile(`(\d{1,3})\s*min(?:utos)?\b`), func(m, _ string) time.Duration {
			return time.Duration(atoi(m)) * time.Minute
		}},
	}
	cancelWords = []string{"cancelar", "desmarcar", "remover", "excluir"}
	weekdays    = []struct {
		name string
		day  time.Weekday
	}{
		{"domingo", time.Sunday},
		{"segunda", time.Monday},
		{"terça", time.Tuesday},
		{"terca", time.Tuesday},
		{"quarta", time.Wednesday},
		{"quinta", time.Thursday},
		{"sexta", time.Friday},
		{"sábado", time.Saturday},
		{"sabado", time.Saturday},
	}
)

// RuleExtractor understands the common Portuguese phrasings ("25/07 às
// 15h", "dia 5 às 9:30", "amanhã às 14h", "sexta às 10h") without a model.
type RuleExtractor struct {
	loc *time.Location
}

func NewRuleExtractor(loc *time.Location) *RuleExtractor {
	if loc == nil {
		loc = time.UTC
	}
	return &RuleExtractor{loc: loc}
}

func (e *RuleExtractor) Name() string { return "rules" }

func (e *RuleExtractor) Extract(_ context.Context, text string, now time.Time) (scheduling.BookingRequest, error) {
	now = now.In(e.loc)
	lower := strings.ToLower(strings.TrimSpace(text))

	action := scheduling.ActionCreate
	for _, w := range cancelWords {
		if strings.Contains(lower, w) {
			action = scheduling.ActionCancel
			break
		}
	}

	date, dateSpan, err := e.findDate(lower, now)
	if err != nil {
		return scheduling.BookingRequest{}, err
	}
	// Remove the date so "25/07" is not read as a clock time.
	rest := lower
	if dateSpan != nil {
		rest = lower[:dateSpan[0]] + " " + lower[dateSpan[1]:]
	}
	withoutDuration, duration := stripDuration(rest)
	hour, minute, ok := findClock(withoutDuration)
	if !ok {
		// "15h de sexta" names the start, not a length.
		duration = 0
		hour, minute, ok = findClock(rest)
	}
	if !ok {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: "no time found in message", Raw: text}
	}
	if duration > scheduling.MaxDuration {
		return scheduling.BookingRequest{}, &ExtractionError{Reason: fmt.Sprintf("duration %s out of range", duration), Raw: text}
	}

	req := scheduling.BookingRequest{
		Action: action,
		Start:  time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, e.loc),
	}
	if action == scheduling.ActionCreate {
		req.Duration = duration
		if req.Duration <= 0 {
			req.Duration = scheduling.DefaultDuration
		}
	}
	if m := subjectRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		req.Title = strings.TrimRight(strings.TrimSpace(m[1]), ".!?")
	}
	return req, nil
}

func (e *RuleExtractor) findDate(lower string, now time.Time) (time.Time, []int, error) {
	if loc := dayMonthRe.FindStringSubmatchIndex(lower); loc != nil {
		input := lower[loc[2]:loc[3]] + "/" + lower[loc[4]:loc[5]]
		d, err := scheduling.ResolveDate(input, now)
		if err != nil {
			return time.Time{}, nil, &ExtractionError{Reason: "invalid date", Raw: lower, Err: err}
		}
		return d, loc[:2], nil
	}
	if loc := dayOnlyRe.FindStringSubmatchIndex(lower); loc != nil {
		d, err := scheduling.ResolveDate(lower[loc[2]:loc[3]], now)
		if err != nil {
			return time.Time{}, nil, &ExtractionError{Reason: "invalid date", Raw: lower, Err: err}
		}
		return d, []int{loc[2], loc[3]}, nil
	}
	switch {
	case strings.Contains(lower, "depois de amanhã"), strings.Contains(lower, "depois de amanha"):
		return now.AddDate(0, 0, 2), nil, nil
	case strings.Contains(lower, "amanhã"), strings.Contains(lower, "amanha"):
		return now.AddDate(0, 0, 1), nil, nil
	case strings.Contains(lower, "hoje"):
		return now, nil, nil
	}
	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			delta := (int(wd.day) - int(now.Weekday()) + 7) % 7
			return now.AddDate(0, 0, delta), nil, nil
		}
	}
	return time.Time{}, nil, &ExtractionError{Reason: "no date found in message", Raw: lower}
}

// stripDuration removes duration phrases from text and returns their sum.
// A phrase right after "às" is a clock time ("às 2 horas") and is kept.
func stripDuration(text string) (string, time.Duration) {
	var total time.Duration
	for _, rule := range durationRules {
		var b strings.Builder
		last := 0
		for _, loc := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			if afterAt(text[:loc[0]]) {
				continue
			}
			total += rule.parse(group(text, loc, 1), group(text, loc, 2))
			b.WriteString(text[last:loc[0]])
			b.WriteString(" ")
			last = loc[1]
		}
		b.WriteString(text[last:])
		text = b.String()
	}
	return text, total
}

func afterAt(prefix string) bool {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return false
	}
	w := fields[len(fields)-1]
	return w == "às" || w == "as"
}

func group(text string, loc []int, n int) string {
	if 2*n+1 >= len(loc) || loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// findClock prefers the time after "às" and falls back to the first
// "15h" or "9:30" style clock.
func findClock(text string) (int, int, bool) {
	for _, m := range atClockRe.FindAllStringSubmatch(text, -1) {
		if hour, minute, err := hourMinute(m[1], m[2]); err == nil {
			return hour, minute, true
		}
	}
	for _, m := range clockRe.FindAllStringSubmatch(text, -1) {
		if hour, minute, err := hourMinute(m[1], m[2]); err == nil {
			return hour, minute, true
		}
	}
	return 0, 0, false
}

func hourMinute(h, m string) (int, int, error) {
	hour, err := strconv.Atoi(h)
	if err != nil || hour > 23 {
		return 0, 0, fmt.Errorf("hour %q", h)
	}
	minute := 0
	if m != "" {
		minute, err = strconv.Atoi(m)
		if err != nil || minute > 59 {
			return 0, 0, fmt.Errorf("minute %q", m)
		}
	}
	return hour, minute, nil
}
