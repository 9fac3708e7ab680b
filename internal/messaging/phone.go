package messaging

import (
	"regexp"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`\d+`)

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// ChannelAddress formats a recipient for Twilio, e.g. "whatsapp:+5511999990000".
// Any channel prefix already on value is replaced. An empty channel yields
// the bare E.164 number.
func ChannelAddress(channel, value string) string {
	value = strings.TrimSpace(value)
	if i := strings.Index(value, ":"); i >= 0 {
		value = value[i+1:]
	}
	number := NormalizeE164(value)
	if number == "" {
		return ""
	}
	channel = strings.TrimSpace(strings.ToLower(channel))
	if channel == "" || channel == "sms" {
		return number
	}
	return channel + ":" + number
}

func sanitizePhone(value string) string {
	if value == "" {
		return ""
	}
	return strings.Join(phoneDigitsRe.FindAllString(value, -1), "")
}
