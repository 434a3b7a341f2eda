package teetime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	MinMinute = 0
	MaxMinute = 24*60 - 1
)

// ParseClock parses a 24-hour "HH:MM" value into minutes after midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 {
		return 0, errors.Newf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, errors.Newf("invalid clock %q: hour out of range", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, errors.Newf("invalid clock %q: minute out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes after midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var twelveHour = regexp.MustCompile(`(?i)(\d{1,2}):(\d{2})\s*(AM|PM)`)

// Parse12Hour extracts a "7:30 PM" style label and returns it as "HH:MM".
// Surrounding text is ignored.
func Parse12Hour(label string) (string, error) {
	m := twelveHour.FindStringSubmatch(label)
	if m == nil {
		return "", errors.Newf("unrecognised time label %q", label)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h < 1 || h > 12 || min > 59 {
		return "", errors.Newf("unrecognised time label %q", label)
	}
	pm := strings.EqualFold(m[3], "PM")
	switch {
	case pm && h != 12:
		h += 12
	case !pm && h == 12:
		h = 0
	}
	return FormatClock(h*60 + min), nil
}
