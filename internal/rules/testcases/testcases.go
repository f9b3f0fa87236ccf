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

// Package testcases contains lists of date specification test cases.
package testcases

import (
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// TestCase defines a single date specification test case to run.
type TestCase struct {
	Name string
	Spec *xmltree.Node
	Now  iso8601.Instant
}

// MatchingTestCases returns test cases where the instant matches the
// specification.
func MatchingTestCases() []TestCase {
	return []TestCase{
		spec("noFields", at(2024, 6, 15, 12, 0, 0)),
		spec("summerMonths", at(2024, 6, 15, 12, 0, 0), "months", "6-8"),
		spec("summerMonthsOtherYear", at(1999, 8, 31, 23, 59, 59), "months", "6-8"),
		spec("businessHours", at(2024, 3, 5, 9, 0, 0), "hours", "9-16", "weekdays", "1-5"),
		spec("exactYear", at(2024, 1, 1, 0, 0, 0), "years", "2024"),
		spec("openEndedYears", at(2030, 1, 1, 0, 0, 0), "years", "2024-"),
		spec("openStartedMonthdays", at(2024, 2, 1, 0, 0, 0), "monthdays", "-10"),
		spec("leapYearday", at(2024, 12, 31, 0, 0, 0), "yeardays", "366"),
		spec("isoWeek", at(2021, 1, 1, 0, 0, 0), "weekyears", "2020", "weeks", "53", "weekdays", "5"),
		spec("lastSecond", at(2024, 1, 1, 23, 59, 59), "hours", "23", "minutes", "59", "seconds", "59"),
		spec("newMoon", at(2024, 1, 11, 0, 0, 0), "moon", "0"),
		spec("fullMoon", at(2024, 6, 1, 0, 0, 0), "moon", "7"),
		// Invalid ranges are ignored rather than failing the match.
		spec("invalidRangeIgnored", at(2024, 6, 15, 12, 0, 0), "months", "8-6", "hours", "12"),
		spec("garbageRangeIgnored", at(2024, 6, 15, 12, 0, 0), "weekdays", "monday"),
	}
}

// BeforeRangeTestCases returns test cases where the first violated field is
// below its range.
func BeforeRangeTestCases() []TestCase {
	return []TestCase{
		spec("mayIsBeforeSummer", at(2024, 5, 31, 23, 59, 59), "months", "6-8"),
		spec("earlyMorning", at(2024, 3, 5, 8, 59, 59), "hours", "9-16"),
		spec("yearsBeforeMonths", at(2023, 12, 1, 0, 0, 0), "years", "2024", "months", "1"),
		spec("hoursCheckedBeforeWeekdays", at(2024, 3, 3, 12, 0, 0), "weekdays", "-5", "hours", "13-"),
	}
}

// AfterRangeTestCases returns test cases where the first violated field is
// above its range.
func AfterRangeTestCases() []TestCase {
	return []TestCase{
		spec("septemberIsAfterSummer", at(2024, 9, 1, 0, 0, 0), "months", "6-8"),
		spec("evening", at(2024, 3, 5, 17, 0, 0), "hours", "9-16", "weekdays", "1-5"),
		spec("sunday", at(2024, 3, 3, 12, 0, 0), "weekdays", "1-5"),
		spec("monthsBeforeHours", at(2024, 7, 1, 3, 0, 0), "months", "-6", "hours", "4-"),
		// The invalid months range is skipped and hours decides.
		spec("invalidMonthsThenHours", at(2024, 6, 15, 18, 0, 0), "months", "x-y", "hours", "9-16"),
	}
}

func spec(name string, now iso8601.Instant, attrs ...string) TestCase {
	return TestCase{
		Name: name,
		Spec: xmltree.New("date_spec", append([]string{"id", name}, attrs...)...),
		Now:  now,
	}
}

func at(year, month, day, hour, minute, second int) iso8601.Instant {
	return iso8601.Date(year, month, day, hour, minute, second, nil)
}
