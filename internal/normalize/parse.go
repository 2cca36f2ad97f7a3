// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// hashtagPattern captures #-prefixed tokens in free text. Unicode letters are
// accepted so Filipino and CJK fandom tags survive extraction.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// relativePattern matches phrases like "3 days ago" or "1 hour ago".
var relativePattern = regexp.MustCompile(`(?i)^(\d+)\s*(second|minute|hour|day|week|month|year)s?\s+ago$`)

// absoluteLayouts are tried in order after the strict ISO layouts fail.
// Providers localize aggressively, so both day-first and month-name forms
// appear in the wild.
var absoluteLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02/01/2006",
	"2006/01/02",
}

// ParseCount converts a provider count value to int64. Providers emit counts
// as JSON numbers, numeric strings, and display strings ("1.2K", "3.4M");
// missing or unparseable input yields 0.
func ParseCount(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		return parseCountString(n)
	default:
		return 0
	}
}

func parseCountString(s string) int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}

	multiplier := float64(1)
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1e3
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1e6
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "B"), strings.HasSuffix(s, "b"):
		multiplier = 1e9
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(f * multiplier)
}

// ParseTime converts a provider timestamp value to a time, or nil when the
// value cannot be interpreted. See parseTimeAt for the fallback order.
func ParseTime(v any) *time.Time {
	return parseTimeAt(v, time.Now().UTC())
}

// parseTimeAt resolves v against the given reference time. The fallback
// order is: numeric epoch, strict ISO, absolute layouts, relative phrases.
// Unparseable input returns nil rather than an error; a nil date never
// blocks ingestion.
func parseTimeAt(v any, now time.Time) *time.Time {
	switch t := v.(type) {
	case float64:
		return epochTime(int64(t))
	case int64:
		return epochTime(t)
	case int:
		return epochTime(int64(t))
	case string:
		return parseTimeString(t, now)
	default:
		return nil
	}
}

// epochTime interprets a numeric timestamp as unix seconds or milliseconds.
// Values past the year ~2255 in seconds are assumed to be milliseconds.
func epochTime(n int64) *time.Time {
	if n <= 0 {
		return nil
	}
	if n > 9e9 {
		n /= 1000
	}
	t := time.Unix(n, 0).UTC()
	return &t
}

func parseTimeString(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Numeric strings are epoch timestamps.
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochTime(n)
	}

	// Strict ISO first.
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}

	// Locale-ish absolute layouts, plus twitter's legacy ruby format.
	for _, layout := range append(absoluteLayouts, time.RubyDate) {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}

	return parseRelative(s, now)
}

// parseRelative resolves phrases like "3 days ago" against the reference
// time. Only the handful of forms providers actually emit are supported.
func parseRelative(s string, now time.Time) *time.Time {
	lower := strings.ToLower(s)
	switch lower {
	case "just now", "now":
		t := now
		return &t
	case "yesterday":
		t := now.AddDate(0, 0, -1)
		return &t
	case "a minute ago", "an hour ago", "a day ago", "a week ago", "a month ago", "a year ago":
		lower = strings.Replace(lower, "a ", "1 ", 1)
		lower = strings.Replace(lower, "an ", "1 ", 1)
	}

	m := relativePattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	var t time.Time
	switch m[2] {
	case "second":
		t = now.Add(-time.Duration(n) * time.Second)
	case "minute":
		t = now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		t = now.Add(-time.Duration(n) * time.Hour)
	case "day":
		t = now.AddDate(0, 0, -n)
	case "week":
		t = now.AddDate(0, 0, -7*n)
	case "month":
		t = now.AddDate(0, -n, 0)
	case "year":
		t = now.AddDate(-n, 0, 0)
	default:
		return nil
	}
	return &t
}

// ExtractHashtags pulls #-prefixed tokens out of free text, lowercased and
// deduplicated in first-seen order. Applied uniformly whenever a platform
// gives no native hashtag field.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
