// Package timefmt parses the timestamp shapes found in product metadata and formats
// elapsed durations the way the reports print them.
package timefmt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrEmpty is returned when a timestamp field is present but blank.
var ErrEmpty = errors.New("empty timestamp")

const (
	// ISO is the naive timestamp layout used in report rows.
	ISO = "2006-01-02T15:04:05"
	// ISOZ is the layout used in report header lines.
	ISOZ = "2006-01-02T15:04:05Z"
)

// Fractional seconds are accepted by time.Parse even when a layout omits them.
var layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-002T15:04:05",
	"2006-002T15:04",
	"2006-01-02",
	"2006-002",
}

// Parse reads an ISO-8601 timestamp as naive UTC. A trailing Z is stripped first; explicit
// numeric offsets are honored and converted to UTC.
func Parse(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil && !strings.HasSuffix(s, "Z") {
		return t.UTC(), nil
	}

	s = strings.TrimSuffix(s, "Z")
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// FormatDays renders seconds as [-]DDDThh:mm:ss. Fractional seconds are truncated and the sign
// applies to the whole value.
func FormatDays(seconds float64) string {
	sign, total := split(seconds)
	days := total / 86400
	rem := total % 86400
	return fmt.Sprintf("%s%03dT%02d:%02d:%02d", sign, days, rem/3600, (rem%3600)/60, rem%60)
}

// FormatHours renders seconds as [-]hh:mm:ss where hh is the total number of hours.
func FormatHours(seconds float64) string {
	sign, total := split(seconds)
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, total/3600, (total%3600)/60, total%60)
}

func split(seconds float64) (string, int64) {
	total := int64(seconds)
	if total < 0 {
		return "-", -total
	}
	return "", total
}

// ParseDays is the inverse of FormatDays.
func ParseDays(value string) (float64, error) {
	sign, body := unsign(value)
	days, clock, ok := strings.Cut(body, "T")
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: missing day separator", value)
	}
	d, err := strconv.ParseInt(days, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	secs, err := clockSeconds(clock)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return sign * float64(d*86400+secs), nil
}

// ParseHours is the inverse of FormatHours.
func ParseHours(value string) (float64, error) {
	sign, body := unsign(value)
	secs, err := clockSeconds(body)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", value, err)
	}
	return sign * float64(secs), nil
}

func unsign(value string) (float64, string) {
	s := strings.TrimSpace(value)
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return -1, rest
	}
	return 1, s
}

func clockSeconds(clock string) (int64, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected hh:mm:ss, got %q", clock)
	}
	var vals [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("bad clock field %q", p)
		}
		vals[i] = v
	}
	if vals[1] > 59 || vals[2] > 59 {
		return 0, fmt.Errorf("clock field out of range in %q", clock)
	}
	return vals[0]*3600 + vals[1]*60 + vals[2], nil
}

// Compact strips colons so a timestamp can be used in a file name.
func Compact(t time.Time) string {
	return strings.ReplaceAll(t.UTC().Format(ISO), ":", "")
}
