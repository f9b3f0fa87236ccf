// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package iso8601 provides the calendar instants and durations that rule
// expressions are evaluated against.  Instants are immutable values; every
// arithmetic operation returns a new Instant.
package iso8601

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// MinYear and MaxYear bound the years an Instant may hold.
	MinYear = 1
	MaxYear = 9999

	displayLayout = "2006-01-02 15:04:05Z07:00"
)

// Instant is a point in calendar time.  The zero value means "no instant".
type Instant struct {
	t time.Time
}

// New wraps t as an Instant.
func New(t time.Time) Instant {
	return Instant{t: t}
}

// Now returns the current time as an Instant in the given location.
func Now(loc *time.Location) Instant {
	if loc == nil {
		loc = time.UTC
	}
	return Instant{t: time.Now().In(loc).Truncate(time.Second)}
}

// Date builds an Instant from calendar and time-of-day components.
func Date(year, month, day, hour, minute, second int, loc *time.Location) Instant {
	if loc == nil {
		loc = time.UTC
	}
	return Instant{t: time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)}
}

// Time returns the underlying time.Time.
func (i Instant) Time() time.Time {
	return i.t
}

// IsZero reports whether i is the zero Instant.
func (i Instant) IsZero() bool {
	return i.t.IsZero()
}

// Compare returns -1, 0 or 1 as i is before, equal to, or after o.
func (i Instant) Compare(o Instant) int {
	switch {
	case i.t.Before(o.t):
		return -1
	case i.t.After(o.t):
		return 1
	}
	return 0
}

// Before reports whether i is strictly before o.
func (i Instant) Before(o Instant) bool {
	return i.t.Before(o.t)
}

// After reports whether i is strictly after o.
func (i Instant) After(o Instant) bool {
	return i.t.After(o.t)
}

// Equal reports whether i and o denote the same instant.
func (i Instant) Equal(o Instant) bool {
	return i.t.Equal(o.t)
}

// AddSeconds returns i shifted by n seconds.
func (i Instant) AddSeconds(n int64) Instant {
	return Instant{t: i.t.Add(time.Duration(n) * time.Second)}
}

// Gregorian returns the calendar year, month (1-12) and day of month.
func (i Instant) Gregorian() (year, month, day int) {
	y, m, d := i.t.Date()
	return y, int(m), d
}

// TimeOfDay returns the hour, minute and second.
func (i Instant) TimeOfDay() (hour, minute, second int) {
	return i.t.Clock()
}

// Ordinal returns the year and the day of the year (1-366).
func (i Instant) Ordinal() (year, yday int) {
	return i.t.Year(), i.t.YearDay()
}

// ISOWeek returns the ISO 8601 week-numbering year, the week (1-53) and the
// weekday, where Monday is 1 and Sunday is 7.
func (i Instant) ISOWeek() (year, week, weekday int) {
	year, week = i.t.ISOWeek()
	weekday = int(i.t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return year, week, weekday
}

// In returns the same instant expressed in loc.
func (i Instant) In(loc *time.Location) Instant {
	return Instant{t: i.t.In(loc)}
}

func (i Instant) String() string {
	if i.IsZero() {
		return "<unset>"
	}
	return i.t.Format(displayLayout)
}

// SetIfEarlier stores candidate in target when target is unset or later than
// candidate.  A nil target is ignored.
func SetIfEarlier(target *Instant, candidate Instant) {
	if target == nil || candidate.IsZero() {
		return
	}
	if target.IsZero() || candidate.Before(*target) {
		*target = candidate
	}
}

var instantPattern = regexp.MustCompile(`^(\d{4})-(?:(\d{2})-(\d{2})|W(\d{2})(?:-(\d))?|(\d{3}))` +
	`(?:[T ](\d{2})(?::(\d{2})(?::(\d{2}))?)?)?` +
	`\s*(Z|[+-]\d{2}(?::?\d{2})?)?$`)

// Parse reads an ISO 8601 date and optional time.  Calendar (2024-01-31),
// ordinal (2024-031) and week (2024-W05-3) dates are accepted.  Strings
// without an offset are interpreted in loc (UTC when nil).
func Parse(s string, loc *time.Location) (Instant, error) {
	if loc == nil {
		loc = time.UTC
	}
	m := instantPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Instant{}, errors.Errorf("%q is not a valid ISO 8601 date/time", s)
	}

	year := atoi(m[1])
	hour, minute, second := atoi(m[7]), atoi(m[8]), atoi(m[9])
	if hour > 23 || minute > 59 || second > 59 {
		return Instant{}, errors.Errorf("%q has an invalid time of day", s)
	}

	if m[10] != "" {
		zone, err := parseOffset(m[10])
		if err != nil {
			return Instant{}, errors.Wrapf(err, "cannot parse %q", s)
		}
		loc = zone
	}

	var t time.Time
	switch {
	case m[2] != "":
		month, day := atoi(m[2]), atoi(m[3])
		if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, month) {
			return Instant{}, errors.Errorf("%q has an invalid calendar date", s)
		}
		t = time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)

	case m[4] != "":
		week, weekday := atoi(m[4]), 1
		if m[5] != "" {
			weekday = atoi(m[5])
		}
		if week < 1 || week > WeeksInYear(year) || weekday < 1 || weekday > 7 {
			return Instant{}, errors.Errorf("%q has an invalid week date", s)
		}
		// January 4th is always in week 1.
		jan4 := time.Date(year, time.January, 4, hour, minute, second, 0, loc)
		offset := int(jan4.Weekday())
		if offset == 0 {
			offset = 7
		}
		t = jan4.AddDate(0, 0, (week-1)*7+(weekday-offset))

	default:
		yday := atoi(m[6])
		if yday < 1 || yday > DaysInYear(year) {
			return Instant{}, errors.Errorf("%q has an invalid ordinal date", s)
		}
		t = time.Date(year, time.January, yday, hour, minute, second, 0, loc)
	}

	if t.Year() < MinYear || t.Year() > MaxYear {
		return Instant{}, errors.Errorf("%q is outside the supported year range", s)
	}
	return Instant{t: t}, nil
}

func parseOffset(s string) (*time.Location, error) {
	if s == "Z" {
		return time.UTC, nil
	}
	sign := 1
	if s[0] == '-' {
		sign = -1
	}
	digits := strings.Replace(s[1:], ":", "", 1)
	hours, minutes := atoi(digits[:2]), 0
	if len(digits) == 4 {
		minutes = atoi(digits[2:])
	}
	if hours > 23 || minutes > 59 {
		return nil, errors.Errorf("invalid UTC offset %q", s)
	}
	if hours == 0 && minutes == 0 {
		return time.UTC, nil
	}
	return time.FixedZone(s, sign*(hours*3600+minutes*60)), nil
}

// DaysInMonth returns the number of days in the given month (1-12).
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// WeeksInYear returns the number of ISO weeks (52 or 53) in year.
func WeeksInYear(year int) int {
	_, week := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return week
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
