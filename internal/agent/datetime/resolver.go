// internal/agent/datetime/resolver.go

// Package datetime resolves relative and absolute date-time phrases against
// a reference instant and a caller timezone. All wall-clock arithmetic is
// performed in the caller's zone and converted to UTC at the end; the server
// zone is never consulted.
package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Resolution is the outcome of resolving a single date-time phrase.
type Resolution struct {
	Instant     *time.Time
	Confident   bool
	MatchedText string
	Timezone    string
}

// Range is a half-open [From, To) interval in UTC.
type Range struct {
	From time.Time
	To   time.Time
}

// defaultHour is the wall-clock hour assumed when a phrase names a day but
// no time of day.
const defaultHour = 9

var (
	isoRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})(?:[t ](\d{1,2}):(\d{2})(?::(\d{2}))?(z)?)?`)

	weekdayRe = regexp.MustCompile(`\b(?:(?:next|this)\s+)?(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b(?:\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b)?`)

	relativeDayRe = regexp.MustCompile(`\b(today|tomorrow)\b(?:\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b)?`)

	inOffsetRe = regexp.MustCompile(`\bin\s+(\d+)\s+(days?|hours?|minutes?)\b`)

	nextWeekRe = regexp.MustCompile(`\bnext\s+week\b`)
)

var weekdayIndex = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve finds the first date-time phrase in text, trying more specific
// phrasings before generic ones. A result is confident only when the phrase
// pins down one specific day; "next week" alone never is.
func (r *Resolver) Resolve(text string, reference time.Time, timezone string) Resolution {
	loc, tzName := loadZone(timezone)
	lower := strings.ToLower(text)
	local := reference.In(loc)

	if res, ok := r.resolveISO(lower, loc, tzName); ok {
		return res
	}
	if res, ok := r.resolveWeekday(lower, local, loc, tzName); ok {
		return res
	}
	if res, ok := r.resolveRelativeDay(lower, local, loc, tzName); ok {
		return res
	}
	if res, ok := r.resolveOffset(lower, local, loc, tzName); ok {
		return res
	}
	if m := nextWeekRe.FindString(lower); m != "" {
		// Ambiguous which day of next week is meant.
		instant := atTime(local.AddDate(0, 0, 7), defaultHour, 0, loc).UTC()
		return Resolution{Instant: &instant, Confident: false, MatchedText: m, Timezone: tzName}
	}

	return Resolution{Timezone: tzName}
}

// ResolveRange resolves calendar-range phrases such as "this week" or
// "this month". Weeks start on Sunday.
func (r *Resolver) ResolveRange(text string, reference time.Time, timezone string) (Range, bool) {
	loc, _ := loadZone(timezone)
	lower := strings.ToLower(text)
	local := reference.In(loc)

	switch {
	case strings.Contains(lower, "this week"):
		start := startOfWeek(local, loc)
		return Range{From: start.UTC(), To: start.AddDate(0, 0, 7).UTC()}, true
	case strings.Contains(lower, "next week"):
		start := startOfWeek(local, loc).AddDate(0, 0, 7)
		return Range{From: start.UTC(), To: start.AddDate(0, 0, 7).UTC()}, true
	case strings.Contains(lower, "this month"):
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return Range{From: start.UTC(), To: start.AddDate(0, 1, 0).UTC()}, true
	case strings.Contains(lower, "today"):
		start := atTime(local, 0, 0, loc)
		return Range{From: start.UTC(), To: start.AddDate(0, 0, 1).UTC()}, true
	}
	return Range{}, false
}

func (r *Resolver) resolveISO(lower string, loc *time.Location, tzName string) (Resolution, bool) {
	m := isoRe.FindStringSubmatch(lower)
	if m == nil {
		return Resolution{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return Resolution{}, false
	}

	hour, minute, sec := defaultHour, 0, 0
	zone := loc
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if m[6] != "" {
			sec, _ = strconv.Atoi(m[6])
		}
		if m[7] == "z" {
			zone = time.UTC
		}
	}

	instant := time.Date(year, time.Month(month), day, hour, minute, sec, 0, zone).UTC()
	return Resolution{Instant: &instant, Confident: true, MatchedText: m[0], Timezone: tzName}, true
}

func (r *Resolver) resolveWeekday(lower string, local time.Time, loc *time.Location, tzName string) (Resolution, bool) {
	m := weekdayRe.FindStringSubmatch(lower)
	if m == nil {
		return Resolution{}, false
	}
	target := weekdayIndex[m[1]]

	daysAhead := (int(target) - int(local.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	day := local.AddDate(0, 0, daysAhead)

	hour, minute := parseClock(m[2], m[3], m[4])
	instant := atTime(day, hour, minute, loc).UTC()
	return Resolution{Instant: &instant, Confident: true, MatchedText: m[0], Timezone: tzName}, true
}

func (r *Resolver) resolveRelativeDay(lower string, local time.Time, loc *time.Location, tzName string) (Resolution, bool) {
	m := relativeDayRe.FindStringSubmatch(lower)
	if m == nil {
		return Resolution{}, false
	}
	day := local
	if m[1] == "tomorrow" {
		day = local.AddDate(0, 0, 1)
	}

	hour, minute := parseClock(m[2], m[3], m[4])
	instant := atTime(day, hour, minute, loc).UTC()
	return Resolution{Instant: &instant, Confident: true, MatchedText: m[0], Timezone: tzName}, true
}

func (r *Resolver) resolveOffset(lower string, local time.Time, loc *time.Location, tzName string) (Resolution, bool) {
	m := inOffsetRe.FindStringSubmatch(lower)
	if m == nil {
		return Resolution{}, false
	}
	n, _ := strconv.Atoi(m[1])

	var instant time.Time
	switch {
	case strings.HasPrefix(m[2], "day"):
		instant = atTime(local.AddDate(0, 0, n), defaultHour, 0, loc).UTC()
	case strings.HasPrefix(m[2], "hour"):
		instant = local.Add(time.Duration(n) * time.Hour).UTC()
	default:
		instant = local.Add(time.Duration(n) * time.Minute).UTC()
	}
	return Resolution{Instant: &instant, Confident: true, MatchedText: m[0], Timezone: tzName}, true
}

// parseClock interprets an extracted hour/minute/meridiem triple. A bare hour
// from 1 to 7 with no am/pm marker is biased to PM; nobody schedules chores
// for 3 in the morning.
func parseClock(hourStr, minuteStr, meridiem string) (int, int) {
	if hourStr == "" {
		return defaultHour, 0
	}
	hour, _ := strconv.Atoi(hourStr)
	minute := 0
	if minuteStr != "" {
		minute, _ = strconv.Atoi(minuteStr)
	}

	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}
	if hour > 23 {
		hour = 23
	}
	return hour, minute
}

func atTime(day time.Time, hour, minute int, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}

func startOfWeek(local time.Time, loc *time.Location) time.Time {
	start := local.AddDate(0, 0, -int(local.Weekday()))
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
}

func loadZone(timezone string) (*time.Location, string) {
	if timezone == "" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, timezone
}
