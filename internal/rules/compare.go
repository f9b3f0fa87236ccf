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
	"rulekeeper.dev/rulekeeper/internal/version"
)

// Comparison is the operator of an attribute expression.
type Comparison int

// Comparison operators.
const (
	ComparisonUnknown Comparison = iota
	ComparisonDefined
	ComparisonUndefined
	ComparisonEq
	ComparisonNe
	ComparisonLt
	ComparisonLte
	ComparisonGt
	ComparisonGte
)

var comparisonTokens = map[string]Comparison{
	"defined":     ComparisonDefined,
	"not_defined": ComparisonUndefined,
	"eq":          ComparisonEq,
	"ne":          ComparisonNe,
	"lt":          ComparisonLt,
	"lte":         ComparisonLte,
	"gt":          ComparisonGt,
	"gte":         ComparisonGte,
}

func (c Comparison) String() string {
	for token, v := range comparisonTokens {
		if v == c {
			return token
		}
	}
	return "unknown"
}

// ordering reports whether c orders its operands rather than testing
// presence or equality.
func (c Comparison) ordering() bool {
	switch c {
	case ComparisonLt, ComparisonLte, ComparisonGt, ComparisonGte:
		return true
	}
	return false
}

// ParseComparison resolves an operation token, ignoring case.  Tokens that
// are not operators give ComparisonUnknown.
func ParseComparison(op string) Comparison {
	if c, ok := comparisonTokens[strings.ToLower(op)]; ok {
		return c
	}
	return ComparisonUnknown
}

// ValueType selects how the operands of a comparison are interpreted.
type ValueType int

// Value types.
const (
	ValueTypeUnknown ValueType = iota
	ValueTypeString
	ValueTypeInteger
	ValueTypeNumber
	ValueTypeVersion
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeString:
		return "string"
	case ValueTypeInteger:
		return "integer"
	case ValueTypeNumber:
		return "number"
	case ValueTypeVersion:
		return "version"
	}
	return "unknown"
}

// ParseType resolves a type token.  Without a token the type depends on the
// operator: ordering operators compare as numbers when either value has a
// decimal point and as integers otherwise; everything else compares as
// strings.
func ParseType(typ *string, op Comparison, v1, v2 *string) ValueType {
	if typ == nil {
		if !op.ordering() {
			return ValueTypeString
		}
		if hasDecimalPoint(v1) || hasDecimalPoint(v2) {
			return ValueTypeNumber
		}
		return ValueTypeInteger
	}

	switch strings.ToLower(*typ) {
	case "string":
		return ValueTypeString
	case "integer":
		return ValueTypeInteger
	case "number":
		return ValueTypeNumber
	case "version":
		return ValueTypeVersion
	}
	return ValueTypeUnknown
}

func hasDecimalPoint(v *string) bool {
	return v != nil && strings.Contains(*v, ".")
}

// CompareByType returns -1, 0 or 1 as l sorts before, with, or after r.  A
// nil value sorts before any present value.  Integer and number values that
// do not parse are compared as strings instead.
func CompareByType(l, r *string, t ValueType) int {
	switch {
	case l == nil && r == nil:
		return 0
	case r == nil:
		return 1
	case l == nil:
		return -1
	}

	switch t {
	case ValueTypeString:
		return strings.Compare(strings.ToLower(*l), strings.ToLower(*r))

	case ValueTypeInteger:
		ln, lerr := strconv.ParseInt(strings.TrimSpace(*l), 10, 64)
		rn, rerr := strconv.ParseInt(strings.TrimSpace(*r), 10, 64)
		if lerr != nil || rerr != nil {
			logger.WithFields(logrus.Fields{
				"left":  *l,
				"right": *r,
			}).Debugf("Integer parse error. Comparing %s and %s as strings", *l, *r)
			return CompareByType(l, r, ValueTypeString)
		}
		return compareOrdered(ln < rn, ln > rn)

	case ValueTypeNumber:
		ln, lerr := strconv.ParseFloat(strings.TrimSpace(*l), 64)
		rn, rerr := strconv.ParseFloat(strings.TrimSpace(*r), 64)
		if lerr != nil || rerr != nil {
			logger.WithFields(logrus.Fields{
				"left":  *l,
				"right": *r,
			}).Debugf("Floating-point parse error. Comparing %s and %s as strings", *l, *r)
			return CompareByType(l, r, ValueTypeString)
		}
		return compareOrdered(ln < rn, ln > rn)

	case ValueTypeVersion:
		return version.Compare(*l, *r)
	}
	return 0
}

func compareOrdered(less, greater bool) int {
	if less {
		return -1
	}
	if greater {
		return 1
	}
	return 0
}
