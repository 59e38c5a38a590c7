package parse

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// clockRe matches H:MM or H:MM:SS with an optional AM/PM marker. WhatsApp
// iOS exports put a narrow no-break space before the marker and some
// locales spell it "p.m.".
var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?[\s\x{202F}\x{00A0}]*(?:([AaPp])\.?[Mm]\.?)?$`)

// Resolve turns the date and time tokens of a header line into a local
// timestamp. It never fails: tokens that cannot be interpreted resolve to
// the current instant.
func Resolve(date, clock string) time.Time {
	var p Parser
	ts, _ := p.Resolve(date, clock)
	return ts
}

// Resolve is like the package level Resolve but also reports whether the
// tokens were understood. ok is false when the current instant was used.
func (p *Parser) Resolve(date, clock string) (ts time.Time, ok bool) {
	day, month, year, ok := splitDate(strings.TrimSpace(date))
	if !ok {
		return p.now(), false
	}
	hour, minute, second, ok := splitClock(strings.TrimSpace(clock))
	if !ok {
		return p.now(), false
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		return p.now(), false
	}
	if hour > 23 || minute > 59 || second > 59 {
		return p.now(), false
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, p.location()), true
}

// splitDate reads three numeric parts separated by a single separator and
// orders them. Day-first wins unless the numbers rule it out.
func splitDate(s string) (day, month, year int, ok bool) {
	sep := strings.IndexAny(s, "/-.")
	if sep < 0 {
		return 0, 0, 0, false
	}
	parts := strings.Split(s, s[sep:sep+1])
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var n [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return 0, 0, 0, false
		}
		n[i] = v
	}

	switch {
	case n[0] > 12:
		day, month = n[0], n[1]
	case n[1] > 12:
		month, day = n[0], n[1]
	default:
		day, month = n[0], n[1]
	}
	return day, month, expandYear(n[2]), true
}

func expandYear(y int) int {
	if y >= 100 {
		return y
	}
	if y < 50 {
		return 2000 + y
	}
	return 1900 + y
}

func splitClock(s string) (hour, minute, second int, ok bool) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		second, _ = strconv.Atoi(m[3])
	}

	switch strings.ToLower(m[4]) {
	case "p":
		if hour != 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, minute, second, true
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
