package formatting

import (
	"fmt"
	"strings"
)

// payload wraps the nested record payload stored alongside each vector point
// and gives typed access without panicking on missing or mistyped keys.
type payload map[string]interface{}

func asPayload(v interface{}) payload {
	if m, ok := v.(map[string]interface{}); ok {
		return payload(m)
	}
	return payload{}
}

func (p payload) sub(key string) payload {
	return asPayload(p[key])
}

func (p payload) str(key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

func (p payload) boolVal(key string) bool {
	b, _ := p[key].(bool)
	return b
}

func (p payload) num(key string) (float64, bool) {
	n, ok := p[key].(float64)
	return n, ok
}

func (p payload) list(key string) []interface{} {
	l, _ := p[key].([]interface{})
	return l
}

// firstPeriod returns the first entry of the pricingPeriods list, if any.
func (p payload) firstPeriod() payload {
	periods := p.list("pricingPeriods")
	if len(periods) == 0 {
		return payload{}
	}
	return asPayload(periods[0])
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// normalizePhone prefixes Mexican numbers with the country code when the
// source stored them bare.
func normalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if strings.HasPrefix(phone, "52") {
		return "+" + phone
	}
	return "+52 " + phone
}

// firstEmail cleans up fields that pack several addresses separated by
// hyphens and returns only the first one.
func firstEmail(email string) string {
	email = strings.TrimSpace(email)
	if i := strings.Index(email, "-"); i >= 0 {
		email = strings.TrimSpace(email[:i])
	}
	return email
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// availableDays renders day-of-week availability flags into a compact
// human-readable phrase.
func availableDays(availability payload) string {
	var days []string
	for _, d := range weekdays {
		if availability.boolVal(d) {
			days = append(days, strings.ToUpper(d[:1])+d[1:])
		}
	}
	switch {
	case len(days) == 7:
		return "Monday through Sunday"
	case len(days) > 0:
		return strings.Join(days, ", ")
	default:
		return "Not specified"
	}
}

// dateOnly strips the time component from an ISO timestamp.
func dateOnly(ts string) string {
	if i := strings.Index(ts, "T"); i >= 0 {
		return ts[:i]
	}
	return ts
}
