package repository

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used on the wire and in tool arguments.
const DateLayout = "2006-01-02"

// ParseDate accepts a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// NormalizeDate parses s and renders it as a calendar date. Empty stays empty.
func NormalizeDate(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// DateArg parses an optional date tool argument.
func DateArg(name, value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := ParseDate(value)
	if err != nil {
		return nil, InvalidArgument("%s must be a date (YYYY-MM-DD): %q", name, value)
	}
	return &t, nil
}

// EndOfDayArg parses an optional inclusive upper bound. A calendar date
// covers the whole day; a timestamp is taken as given.
func EndOfDayArg(name, value string) (*time.Time, error) {
	t, err := DateArg(name, value)
	if err != nil || t == nil {
		return t, err
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(value)); err == nil {
		end := t.Add(24*time.Hour - time.Second)
		return &end, nil
	}
	return t, nil
}
