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

package rules

import (
	"github.com/sirupsen/logrus"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// DateSpec is a cron-like specification.  Each field is optional; an
// instant matches when every present field contains its component.
type DateSpec struct {
	ID string

	Years     *Range
	Months    *Range
	MonthDays *Range
	Hours     *Range
	Minutes   *Range
	Seconds   *Range
	YearDays  *Range
	WeekYears *Range
	Weeks     *Range
	WeekDays  *Range
	// Moon is the deprecated phase of the moon, 0 (new) to 7 (full).
	Moon *Range
}

type dateSpecField struct {
	attr  string
	r     **Range
	value func(c *components) int
}

type components struct {
	year, month, monthDay   int
	hour, minute, second    int
	yearDay                 int
	weekYear, week, weekDay int
	moon                    int
}

func newComponents(now iso8601.Instant) *components {
	c := &components{}
	c.year, c.month, c.monthDay = now.Gregorian()
	c.hour, c.minute, c.second = now.TimeOfDay()
	_, c.yearDay = now.Ordinal()
	c.weekYear, c.week, c.weekDay = now.ISOWeek()
	c.moon = phaseOfTheMoon(now)
	return c
}

// fields lists spec's ranges in evaluation order.
func (spec *DateSpec) fields() []dateSpecField {
	return []dateSpecField{
		{AttrYears, &spec.Years, func(c *components) int { return c.year }},
		{AttrMonths, &spec.Months, func(c *components) int { return c.month }},
		{AttrMonthDays, &spec.MonthDays, func(c *components) int { return c.monthDay }},
		{AttrHours, &spec.Hours, func(c *components) int { return c.hour }},
		{AttrMinutes, &spec.Minutes, func(c *components) int { return c.minute }},
		{AttrSeconds, &spec.Seconds, func(c *components) int { return c.second }},
		{AttrYearDays, &spec.YearDays, func(c *components) int { return c.yearDay }},
		{AttrWeekYears, &spec.WeekYears, func(c *components) int { return c.weekYear }},
		{AttrWeeks, &spec.Weeks, func(c *components) int { return c.week }},
		{AttrWeekDays, &spec.WeekDays, func(c *components) int { return c.weekDay }},
		{AttrMoon, &spec.Moon, func(c *components) int { return c.moon }},
	}
}

// UnpackDateSpec reads a date_spec element.  A field whose range cannot be
// parsed is logged and left unset, so it does not constrain the match.
func UnpackDateSpec(node *xmltree.Node) *DateSpec {
	if node == nil {
		return nil
	}

	spec := &DateSpec{ID: node.ID()}
	if spec.ID == "" {
		logger.WithFields(logrus.Fields{
			"parent": xmltree.LoggableParentID(node),
		}).Warnf("%s subelement of %s has no %s", ElementDateSpec, ElementDateExpression, AttrID)
		spec.ID = missingID
	}

	for _, f := range spec.fields() {
		text, ok := node.Attr(f.attr)
		if !ok {
			continue
		}
		r, err := ParseRange(text)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"id":        spec.ID,
				"attribute": f.attr,
				"value":     text,
				"fallback":  "ignored",
				"error":     err.Error(),
			}).Errorf("Ignoring %s %s attribute %s because '%s' is not a valid range", ElementDateSpec, spec.ID, f.attr, text)
			continue
		}
		*f.r = &r
	}

	if spec.Moon != nil {
		logger.WithFields(logrus.Fields{
			"id": spec.ID,
		}).Warnf("Support for '%s' in %s elements (such as %s) is deprecated and will be removed in a future release", AttrMoon, ElementDateSpec, spec.ID)
	}
	return spec
}

// MatchDateSpec checks now against spec, field by field in a fixed order
// (years, months, monthdays, hours, minutes, seconds, yeardays, weekyears,
// weeks, weekdays, moon).  The first violated field decides the Result;
// ResultOK means every present field matched, or none was present.
func MatchDateSpec(spec *DateSpec, now iso8601.Instant) (Result, error) {
	if spec == nil || now.IsZero() {
		return ResultUndetermined, invalidArgument("cannot match date specification")
	}

	c := newComponents(now)
	for _, f := range spec.fields() {
		r := *f.r
		if r == nil {
			continue
		}
		value := f.value(c)
		rc := r.Check(int64(value))
		logger.WithFields(logrus.Fields{
			"id":        spec.ID,
			"attribute": f.attr,
			"range":     r.String(),
			"value":     value,
		}).Tracef("Checked %s %s %s='%s' for %d: %s", ElementDateSpec, spec.ID, f.attr, r, value, rc)
		if rc != ResultOK {
			return rc, nil
		}
	}
	return ResultOK, nil
}

// phaseOfTheMoon approximates the moon phase for now, where 0 is the new moon
// and 7 the full moon.
//
// A lunation is about 29.53 days and the phase on January 1st advances by
// about 11 days every year, repeating every 19 years.  Six lunations are
// about 177 days, which is spread over 8 phases of 22 days (+11 to round).
func phaseOfTheMoon(now iso8601.Instant) int {
	year, yday := now.Ordinal()
	goldn := (year % 19) + 1
	epact := (11*goldn + 18) % 30
	if (epact == 25 && goldn > 11) || epact == 24 {
		epact++
	}
	return ((((yday + epact) * 6) + 11) % 177) / 22 & 7
}
