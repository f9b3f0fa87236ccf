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

package iso8601

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Component identifies one unit of a Duration.
type Component int

// Components in the order they are applied.
const (
	Years Component = iota
	Months
	Weeks
	Days
	Hours
	Minutes
	Seconds
)

// Components lists every duration component, largest unit first.
var Components = []Component{Years, Months, Weeks, Days, Hours, Minutes, Seconds}

func (c Component) String() string {
	switch c {
	case Years:
		return "years"
	case Months:
		return "months"
	case Weeks:
		return "weeks"
	case Days:
		return "days"
	case Hours:
		return "hours"
	case Minutes:
		return "minutes"
	case Seconds:
		return "seconds"
	}
	return "unknown"
}

// limit is the largest magnitude accepted for each component, roughly the
// span of the supported year range.
func (c Component) limit() int64 {
	const years = MaxYear - MinYear + 1
	switch c {
	case Years:
		return years
	case Months:
		return years * 12
	case Weeks:
		return years * 53
	case Days:
		return years * 366
	case Hours:
		return years * 366 * 24
	case Minutes:
		return years * 366 * 24 * 60
	}
	return years * 366 * 24 * 3600
}

// Duration is a calendar duration.  Components are signed and independent.
type Duration struct {
	Years   int64
	Months  int64
	Weeks   int64
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
}

// Get returns the value of component c.
func (d Duration) Get(c Component) int64 {
	switch c {
	case Years:
		return d.Years
	case Months:
		return d.Months
	case Weeks:
		return d.Weeks
	case Days:
		return d.Days
	case Hours:
		return d.Hours
	case Minutes:
		return d.Minutes
	case Seconds:
		return d.Seconds
	}
	return 0
}

// Set assigns v to component c.
func (d *Duration) Set(c Component, v int64) {
	switch c {
	case Years:
		d.Years = v
	case Months:
		d.Months = v
	case Weeks:
		d.Weeks = v
	case Days:
		d.Days = v
	case Hours:
		d.Hours = v
	case Minutes:
		d.Minutes = v
	case Seconds:
		d.Seconds = v
	}
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d == Duration{}
}

func (d Duration) String() string {
	return fmt.Sprintf("P%dY%dM%dW%dDT%dH%dM%dS",
		d.Years, d.Months, d.Weeks, d.Days, d.Hours, d.Minutes, d.Seconds)
}

// ComponentError reports a duration component that could not be applied.
type ComponentError struct {
	Component Component
	Value     string
	Reason    string
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("invalid duration %s %q: %s", e.Component, e.Value, e.Reason)
}

// AddDuration applies d to start, largest unit first.  A component that
// cannot be applied is reported and skipped; the returned Instant always
// reflects every component that could be applied.
//
// Adding months or years never overflows into the following month: the day
// of month is clamped to the last day of the target month, so January 31
// plus one month is the last day of February.
func AddDuration(start Instant, d Duration) (Instant, []error) {
	var errs []error
	t := start.t

	for _, c := range Components {
		v := d.Get(c)
		if v == 0 {
			continue
		}
		if v > c.limit() || v < -c.limit() {
			errs = append(errs, &ComponentError{
				Component: c,
				Value:     strconv.FormatInt(v, 10),
				Reason:    "value out of range",
			})
			continue
		}

		next := addComponent(t, c, v)
		if next.Year() < MinYear || next.Year() > MaxYear {
			errs = append(errs, &ComponentError{
				Component: c,
				Value:     strconv.FormatInt(v, 10),
				Reason:    "result outside supported year range",
			})
			continue
		}
		t = next
	}
	return Instant{t: t}, errs
}

func addComponent(t time.Time, c Component, v int64) time.Time {
	switch c {
	case Years:
		return addMonths(t, v*12)
	case Months:
		return addMonths(t, v)
	case Weeks:
		return t.AddDate(0, 0, int(v*7))
	case Days:
		return t.AddDate(0, 0, int(v))
	case Hours:
		return addSeconds(t, v*3600)
	case Minutes:
		return addSeconds(t, v*60)
	}
	return addSeconds(t, v)
}

func addMonths(t time.Time, n int64) time.Time {
	y, m, d := t.Date()
	total := int64(y)*12 + int64(m-1) + n
	year := total / 12
	month := total % 12
	if month < 0 {
		month += 12
		year--
	}
	if last := DaysInMonth(int(year), int(month)+1); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(int(year), time.Month(month+1), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func addSeconds(t time.Time, n int64) time.Time {
	return time.Unix(t.Unix()+n, int64(t.Nanosecond())).In(t.Location())
}

var durationPattern = regexp.MustCompile(`^([+-])?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?` +
	`(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDuration reads an ISO 8601 duration such as "P1DT12H" or "-PT30M".
func ParseDuration(s string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil || s[len(s)-1] == 'T' {
		return Duration{}, errors.Errorf("%q is not a valid ISO 8601 duration", s)
	}

	sign := int64(1)
	if m[1] == "-" {
		sign = -1
	}

	var d Duration
	found := false
	for i, c := range Components {
		if m[i+2] == "" {
			continue
		}
		v, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil {
			return Duration{}, errors.Wrapf(err, "invalid %s in duration %q", c, s)
		}
		d.Set(c, sign*v)
		found = true
	}
	if !found {
		return Duration{}, errors.Errorf("%q has no duration components", s)
	}
	return d, nil
}
