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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// RuleInput is everything a rule may be evaluated against.
type RuleInput struct {
	Now iso8601.Instant

	// NodeAttrs are the attributes of the node being placed, including the
	// reserved #uname, #kind and #id.
	NodeAttrs map[string]string

	RscStandard string
	RscProvider string
	RscAgent    string

	// OpName is empty when the rule is not evaluated for an operation.
	OpName     string
	OpInterval time.Duration

	RscParams map[string]string
	RscMeta   map[string]string

	// Match and Submatches describe a regular expression match whose
	// groups may be referenced as %0..%9 in attribute names.  Submatches
	// uses the layout of regexp.FindStringSubmatchIndex.
	Match      string
	Submatches []int
	NumMatches int
}

// Outcome is the verdict for one top-level rule.
type Outcome struct {
	ID     string
	Result Result
}

const (
	booleanAnd = "and"
	booleanOr  = "or"

	valueSourceLiteral = "literal"
	valueSourceParam   = "param"
	valueSourceMeta    = "meta"
)

// LoadRules returns the rule elements under root in document order,
// including root itself.  Rules nested in another rule are evaluated as
// part of their parent and are not returned.
func LoadRules(root *xmltree.Node) []*xmltree.Node {
	var found []*xmltree.Node
	var walk func(n *xmltree.Node)
	walk = func(n *xmltree.Node) {
		if n.Is(ElementRule) {
			found = append(found, n)
			return
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return found
}

// EvaluateRules evaluates each rule and returns the verdicts together with
// the earliest instant at which any of them could change.  The returned
// instant is zero when no change is known.
func EvaluateRules(rules []*xmltree.Node, input *RuleInput) ([]Outcome, iso8601.Instant, error) {
	var next iso8601.Instant
	outcomes := make([]Outcome, 0, len(rules))
	for _, rule := range rules {
		rc, err := EvaluateRule(rule, input, &next)
		if err != nil {
			return nil, iso8601.Instant{}, err
		}
		id := rule.ID()
		if id == "" {
			id = missingID
		}
		outcomes = append(outcomes, Outcome{ID: id, Result: rc})
	}
	return outcomes, next, nil
}

// EvaluateRule evaluates a rule element.  The result is ResultOK when the
// rule passes; otherwise it is the result of the subexpression that decided
// the rule.
func EvaluateRule(rule *xmltree.Node, input *RuleInput, nextChange *iso8601.Instant) (Result, error) {
	if rule == nil || input == nil || input.Now.IsZero() {
		return ResultUndetermined, invalidArgument("cannot evaluate rule")
	}

	id := rule.ID()
	if id == "" {
		logger.Warnf("%s element has no %s", ElementRule, AttrID)
		id = missingID
	}

	op := strings.ToLower(rule.AttrOr(AttrBooleanOp, booleanAnd))
	if op != booleanAnd && op != booleanOr {
		logger.WithFields(logrus.Fields{
			"id":        id,
			"attribute": AttrBooleanOp,
			"value":     op,
			"fallback":  "not passing",
		}).Errorf("Treating %s %s as not passing because '%s' is not a valid %s", ElementRule, id, op, AttrBooleanOp)
		return ResultUndetermined, nil
	}

	children := rule.Children()
	if len(children) == 0 {
		logger.WithFields(logrus.Fields{
			"id": id,
		}).Warnf("Ignoring %s %s because it contains no expressions", ElementRule, id)
		return ResultOK, nil
	}

	rc := ResultOK
	for _, child := range children {
		rc = evaluateSubexpression(child, input, nextChange)
		passed := rc.Passed()
		if passed && op == booleanOr {
			rc = ResultOK
			break
		}
		if !passed && op == booleanAnd {
			break
		}
	}
	if rc == ResultWithinRange {
		rc = ResultOK
	}

	logger.WithFields(logrus.Fields{
		"id":     id,
		"result": rc.String(),
	}).Tracef("%s %s: %s", ElementRule, id, rc)
	return rc, nil
}

func evaluateSubexpression(node *xmltree.Node, input *RuleInput, nextChange *iso8601.Instant) Result {
	var rc Result
	switch Classify(node) {
	case ExpressionDateTime:
		rc, _ = EvaluateDateExpressionNode(node, input.Now, nextChange)
	case ExpressionAttribute, ExpressionLocation:
		rc = evaluateAttributeExpression(node, input)
	case ExpressionResource:
		rc = evaluateResourceExpression(node, input)
	case ExpressionOperation:
		rc = evaluateOperationExpression(node, input)
	case ExpressionRule:
		rc, _ = EvaluateRule(node, input, nextChange)
	default:
		logger.WithFields(logrus.Fields{
			"parent":  xmltree.LoggableParentID(node),
			"element": node.Name,
		}).Warnf("Treating %s %s as not passing because %s is not a valid expression",
			ElementRule, xmltree.LoggableParentID(node), node.Name)
		rc = ResultUndetermined
	}
	return rc
}

func expressionID(node *xmltree.Node) string {
	if id := node.ID(); id != "" {
		return id
	}
	logger.WithFields(logrus.Fields{
		"parent": xmltree.LoggableParentID(node),
	}).Warnf("%s element in %s %s has no %s", node.Name, ElementRule, xmltree.LoggableParentID(node), AttrID)
	return missingID
}

func expressionWarn(id, attr, value, format string, args ...interface{}) {
	logger.WithFields(logrus.Fields{
		"id":        id,
		"attribute": attr,
		"value":     value,
		"fallback":  "not passing",
	}).Warnf(format, args...)
}

func evaluateAttributeExpression(node *xmltree.Node, input *RuleInput) Result {
	id := expressionID(node)

	name, ok := node.Attr(AttrAttribute)
	if !ok || name == "" {
		expressionWarn(id, AttrAttribute, "", "Treating %s %s as not passing because it has no %s",
			ElementExpression, id, AttrAttribute)
		return ResultUndetermined
	}
	if input.NumMatches > 0 {
		if expanded, ok := ReplaceSubmatches(name, input.Match, input.Submatches, input.NumMatches); ok {
			name = expanded
		}
	}

	opToken := node.AttrOr(AttrOperation, "")
	op := ParseComparison(opToken)
	if op == ComparisonUnknown {
		expressionWarn(id, AttrOperation, opToken, "Treating %s %s as not passing because '%s' is not a valid %s",
			ElementExpression, id, opToken, AttrOperation)
		return ResultUndetermined
	}

	actual := lookup(input.NodeAttrs, name)
	switch op {
	case ComparisonDefined:
		return boolResult(actual != nil)
	case ComparisonUndefined:
		return boolResult(actual == nil)
	}

	expected, ok := expectedValue(node, id, input)
	if !ok {
		return ResultUndetermined
	}

	var typ *string
	if v, ok := node.Attr(AttrType); ok {
		typ = &v
	}
	vt := ParseType(typ, op, actual, expected)
	if vt == ValueTypeUnknown {
		expressionWarn(id, AttrType, *typ, "Treating %s %s as not passing because '%s' is not a valid %s",
			ElementExpression, id, *typ, AttrType)
		return ResultUndetermined
	}

	if op.ordering() && (actual == nil || expected == nil) {
		return ResultUnsatisfied
	}
	cmp := CompareByType(actual, expected, vt)

	switch op {
	case ComparisonEq:
		return boolResult(cmp == 0)
	case ComparisonNe:
		return boolResult(cmp != 0)
	case ComparisonLt:
		return boolResult(cmp < 0)
	case ComparisonLte:
		return boolResult(cmp <= 0)
	case ComparisonGt:
		return boolResult(cmp > 0)
	}
	return boolResult(cmp >= 0)
}

// expectedValue resolves the value an attribute is compared with.  A value
// that names a missing resource parameter or meta-attribute is nil.
func expectedValue(node *xmltree.Node, id string, input *RuleInput) (*string, bool) {
	value, ok := node.Attr(AttrValue)
	if !ok {
		expressionWarn(id, AttrValue, "", "Treating %s %s as not passing because it has no %s",
			ElementExpression, id, AttrValue)
		return nil, false
	}

	source := node.AttrOr(AttrValueSource, valueSourceLiteral)
	switch strings.ToLower(source) {
	case valueSourceLiteral:
		return &value, true
	case valueSourceParam:
		return lookup(input.RscParams, value), true
	case valueSourceMeta:
		return lookup(input.RscMeta, value), true
	}
	expressionWarn(id, AttrValueSource, source, "Treating %s %s as not passing because '%s' is not a valid %s",
		ElementExpression, id, source, AttrValueSource)
	return nil, false
}

func evaluateResourceExpression(node *xmltree.Node, input *RuleInput) Result {
	id := expressionID(node)
	checks := []struct {
		attr   string
		actual string
	}{
		{AttrClass, input.RscStandard},
		{AttrProvider, input.RscProvider},
		{AttrType, input.RscAgent},
	}
	for _, c := range checks {
		expected, ok := node.Attr(c.attr)
		if !ok {
			continue
		}
		if expected != c.actual {
			logger.WithFields(logrus.Fields{
				"id":        id,
				"attribute": c.attr,
				"value":     expected,
			}).Tracef("%s %s is not satisfied because %s '%s' is not '%s'", ElementRscExpression, id, c.attr, c.actual, expected)
			return ResultUnsatisfied
		}
	}
	return ResultOK
}

func evaluateOperationExpression(node *xmltree.Node, input *RuleInput) Result {
	id := expressionID(node)

	name, ok := node.Attr(AttrName)
	if !ok {
		expressionWarn(id, AttrName, "", "Treating %s %s as not passing because it has no %s",
			ElementOpExpression, id, AttrName)
		return ResultUndetermined
	}
	if name != input.OpName {
		return ResultUnsatisfied
	}

	text, ok := node.Attr(AttrInterval)
	if !ok {
		return ResultOK
	}
	interval, err := ParseInterval(text)
	if err != nil {
		expressionWarn(id, AttrInterval, text, "Treating %s %s as not passing because '%s' is not a valid %s",
			ElementOpExpression, id, text, AttrInterval)
		return ResultUndetermined
	}
	return boolResult(interval == input.OpInterval)
}

// ParseInterval reads an operation interval: a Go duration ("10s", "1m30s"),
// a plain number of seconds, or an ISO 8601 duration without years or
// months ("PT1M").
func ParseInterval(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if secs, err := strconv.ParseInt(text, 10, 64); err == nil {
		if secs < 0 || secs > maxIntervalSeconds {
			return 0, invalidInterval(text)
		}
		return time.Duration(secs) * time.Second, nil
	}
	if d, err := time.ParseDuration(text); err == nil {
		if d < 0 {
			return 0, invalidInterval(text)
		}
		return d, nil
	}

	d, err := iso8601.ParseDuration(text)
	if err != nil || d.Years != 0 || d.Months != 0 {
		return 0, invalidInterval(text)
	}
	var secs int64
	for _, part := range []struct{ n, unit int64 }{
		{d.Weeks, 7 * 24 * 3600},
		{d.Days, 24 * 3600},
		{d.Hours, 3600},
		{d.Minutes, 60},
		{d.Seconds, 1},
	} {
		if part.n < 0 || part.n > (maxIntervalSeconds-secs)/part.unit {
			return 0, invalidInterval(text)
		}
		secs += part.n * part.unit
	}
	return time.Duration(secs) * time.Second, nil
}

// maxIntervalSeconds is the longest interval a time.Duration can hold.
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

func invalidInterval(text string) error {
	return errors.Errorf("'%s' is not a valid interval", text)
}

func lookup(m map[string]string, key string) *string {
	if v, ok := m[key]; ok {
		return &v
	}
	return nil
}

func boolResult(ok bool) Result {
	if ok {
		return ResultOK
	}
	return ResultUnsatisfied
}
