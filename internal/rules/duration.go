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
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

var durationAttrs = map[iso8601.Component]string{
	iso8601.Years:   AttrYears,
	iso8601.Months:  AttrMonths,
	iso8601.Weeks:   AttrWeeks,
	iso8601.Days:    "days",
	iso8601.Hours:   AttrHours,
	iso8601.Minutes: AttrMinutes,
	iso8601.Seconds: AttrSeconds,
}

// durationFromNode reads the components of a duration element.  Components
// that are not integers are reported and left at zero.
func durationFromNode(node *xmltree.Node) (iso8601.Duration, []error) {
	var d iso8601.Duration
	var errs []error
	for _, c := range iso8601.Components {
		text, ok := node.Attr(durationAttrs[c])
		if !ok {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			errs = append(errs, &iso8601.ComponentError{Component: c, Value: text, Reason: "not an integer"})
			continue
		}
		d.Set(c, v)
	}
	return d, errs
}

func durationID(node *xmltree.Node) string {
	id := node.ID()
	if id == "" {
		logger.WithFields(logrus.Fields{
			"parent": xmltree.LoggableParentID(node),
		}).Warnf("%s subelement of %s has no %s", ElementDuration, ElementDateExpression, AttrID)
		id = missingID
	}
	return id
}

func logDurationErrors(id string, errs []error) {
	for _, err := range errs {
		attr := "duration"
		if cerr, ok := err.(*iso8601.ComponentError); ok {
			attr = durationAttrs[cerr.Component]
		}
		logger.WithFields(logrus.Fields{
			"id":        id,
			"attribute": attr,
			"fallback":  "ignored",
			"error":     err.Error(),
		}).Warnf("Ignoring %s in %s %s because it is invalid", attr, ElementDuration, id)
	}
}

// UnpackDuration computes the end of a duration element that starts at
// start.  Invalid components are logged, skipped and returned; the end
// instant reflects every valid component.
func UnpackDuration(node *xmltree.Node, start iso8601.Instant) (iso8601.Instant, []error) {
	if node == nil || start.IsZero() {
		return iso8601.Instant{}, []error{invalidArgument("cannot unpack duration")}
	}

	id := durationID(node)
	d, errs := durationFromNode(node)
	end, addErrs := iso8601.AddDuration(start, d)
	errs = append(errs, addErrs...)
	logDurationErrors(id, errs)
	return end, errs
}
