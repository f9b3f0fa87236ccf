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
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// DateOperation is the operation of a date_expression element.
type DateOperation int

// Date operations.
const (
	DateUnknown DateOperation = iota
	DateInRange
	DateSpecOperation
	DateGreaterThan
	DateLessThan
)

func (op DateOperation) String() string {
	switch op {
	case DateInRange:
		return "in_range"
	case DateSpecOperation:
		return "date_spec"
	case DateGreaterThan:
		return "gt"
	case DateLessThan:
		return "lt"
	}
	return "unknown"
}

// ParseDateOperation resolves an operation attribute.  A missing attribute
// means in_range.
func ParseDateOperation(token string, present bool) DateOperation {
	if !present {
		return DateInRange
	}
	switch strings.ToLower(token) {
	case "in_range":
		return DateInRange
	case "date_spec":
		return DateSpecOperation
	case "gt":
		return DateGreaterThan
	case "lt":
		return DateLessThan
	}
	return DateUnknown
}

// DateExpression is an unpacked date_expression element.
type DateExpression struct {
	ID             string
	Operation      DateOperation
	OperationToken string

	// Start and End are zero when absent or invalid.
	Start    iso8601.Instant
	End      iso8601.Instant
	StartErr error
	EndErr   error

	// DurationNode is the first duration subelement, used for in_range
	// expressions without an end.
	DurationNode *xmltree.Node

	// Spec is the first date_spec subelement, nil when there is none.
	Spec *DateSpec
}

// UnpackDateExpression reads a date_expression element.  Instants without a
// UTC offset are interpreted in loc; nil means UTC.  Unpacking never fails:
// problems are recorded on the expression and reported when it is
// evaluated.
func UnpackDateExpression(node *xmltree.Node, loc *time.Location) *DateExpression {
	if node == nil {
		return nil
	}

	expr := &DateExpression{ID: node.ID()}
	if expr.ID == "" {
		logger.Warnf("%s element has no %s", ElementDateExpression, AttrID)
		expr.ID = missingID
	}

	token, present := node.Attr(AttrOperation)
	expr.OperationToken = token
	expr.Operation = ParseDateOperation(token, present)

	if text, ok := node.Attr(AttrStart); ok {
		expr.Start, expr.StartErr = iso8601.Parse(text, loc)
	}
	if text, ok := node.Attr(AttrEnd); ok {
		expr.End, expr.EndErr = iso8601.Parse(text, loc)
	}
	expr.DurationNode = node.FirstChild(ElementDuration)
	if spec := node.FirstChild(ElementDateSpec); spec != nil {
		expr.Spec = UnpackDateSpec(spec)
	}
	return expr
}

func (expr *DateExpression) warn(format string, args ...interface{}) {
	logger.WithFields(logrus.Fields{
		"id":        expr.ID,
		"operation": expr.Operation.String(),
	}).Warnf(format, args...)
}

// EvaluateDateExpression decides whether now satisfies expr.  When
// nextChange is not nil it is lowered to the earliest instant at which the
// result could change, if one is known.
func EvaluateDateExpression(expr *DateExpression, now iso8601.Instant, nextChange *iso8601.Instant) (Result, error) {
	if expr == nil || now.IsZero() {
		return ResultUndetermined, invalidArgument("cannot evaluate date expression")
	}

	rc := ResultUndetermined
	switch expr.Operation {
	case DateInRange:
		rc = expr.evaluateInRange(now, nextChange)

	case DateSpecOperation:
		if expr.Spec == nil {
			expr.warn("Treating %s %s as not passing because %s operations require a %s subelement",
				ElementDateExpression, expr.ID, DateSpecOperation, ElementDateSpec)
			break
		}
		// TODO: compute the next field boundary so date_spec can set nextChange.
		rc, _ = MatchDateSpec(expr.Spec, now)

	case DateGreaterThan:
		rc = expr.evaluateGreaterThan(now, nextChange)

	case DateLessThan:
		rc = expr.evaluateLessThan(now, nextChange)

	default:
		expr.warn("Treating %s %s as not passing because '%s' is not a valid %s",
			ElementDateExpression, expr.ID, expr.OperationToken, AttrOperation)
	}

	logger.WithFields(logrus.Fields{
		"id":        expr.ID,
		"operation": expr.Operation.String(),
		"result":    rc.String(),
	}).Tracef("%s %s (%s): %s", ElementDateExpression, expr.ID, expr.Operation, rc)
	return rc, nil
}

// EvaluateDateExpressionNode unpacks and evaluates a date_expression
// element, reading instants in the location of now.
func EvaluateDateExpressionNode(node *xmltree.Node, now iso8601.Instant, nextChange *iso8601.Instant) (Result, error) {
	if node == nil || now.IsZero() {
		return ResultUndetermined, invalidArgument("cannot evaluate date expression")
	}
	return EvaluateDateExpression(UnpackDateExpression(node, now.Time().Location()), now, nextChange)
}

func (expr *DateExpression) evaluateInRange(now iso8601.Instant, nextChange *iso8601.Instant) Result {
	if expr.StartErr != nil {
		expr.warn("Ignoring %s in %s %s because it is invalid", AttrStart, ElementDateExpression, expr.ID)
	}
	if expr.EndErr != nil {
		expr.warn("Ignoring %s in %s %s because it is invalid", AttrEnd, ElementDateExpression, expr.ID)
	}

	start, end := expr.Start, expr.End
	if start.IsZero() && end.IsZero() {
		expr.warn("Treating %s %s as not passing because in_range requires at least one of %s or %s",
			ElementDateExpression, expr.ID, AttrStart, AttrEnd)
		return ResultUndetermined
	}

	if end.IsZero() && expr.DurationNode != nil {
		// A duration with invalid components still yields a usable end.
		end, _ = UnpackDuration(expr.DurationNode, start)
	}

	if !start.IsZero() && now.Before(start) {
		iso8601.SetIfEarlier(nextChange, start)
		return ResultBeforeRange
	}

	if !end.IsZero() {
		if now.After(end) {
			return ResultAfterRange
		}
		// The result holds through the last second of the range.
		iso8601.SetIfEarlier(nextChange, end.AddSeconds(1))
	}
	return ResultWithinRange
}

func (expr *DateExpression) evaluateGreaterThan(now iso8601.Instant, nextChange *iso8601.Instant) Result {
	if expr.StartErr != nil {
		expr.warn("Treating %s %s as not passing because %s is invalid", ElementDateExpression, expr.ID, AttrStart)
		return ResultUndetermined
	}
	if expr.Start.IsZero() {
		expr.warn("Treating %s %s as not passing because %s requires %s", ElementDateExpression, expr.ID, DateGreaterThan, AttrStart)
		return ResultUndetermined
	}

	if now.After(expr.Start) {
		return ResultWithinRange
	}
	iso8601.SetIfEarlier(nextChange, expr.Start.AddSeconds(1))
	return ResultBeforeRange
}

func (expr *DateExpression) evaluateLessThan(now iso8601.Instant, nextChange *iso8601.Instant) Result {
	if expr.EndErr != nil {
		expr.warn("Treating %s %s as not passing because %s is invalid", ElementDateExpression, expr.ID, AttrEnd)
		return ResultUndetermined
	}
	if expr.End.IsZero() {
		expr.warn("Treating %s %s as not passing because %s requires %s", ElementDateExpression, expr.ID, DateLessThan, AttrEnd)
		return ResultUndetermined
	}

	if now.Before(expr.End) {
		iso8601.SetIfEarlier(nextChange, expr.End)
		return ResultWithinRange
	}
	return ResultAfterRange
}
