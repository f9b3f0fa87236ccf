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
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// ExpressionType is the kind of a rule subexpression.
type ExpressionType int

// Expression types.
const (
	ExpressionUnknown ExpressionType = iota
	ExpressionDateTime
	ExpressionResource
	ExpressionOperation
	ExpressionRule
	ExpressionLocation
	ExpressionAttribute
)

func (t ExpressionType) String() string {
	switch t {
	case ExpressionDateTime:
		return "datetime"
	case ExpressionResource:
		return "resource"
	case ExpressionOperation:
		return "operation"
	case ExpressionRule:
		return "rule"
	case ExpressionLocation:
		return "location"
	case ExpressionAttribute:
		return "attribute"
	}
	return "unknown"
}

// Classify returns the expression type of a configuration element.  Generic
// expression elements are location expressions when they test one of the
// reserved node attributes, attribute expressions otherwise.
func Classify(node *xmltree.Node) ExpressionType {
	if node == nil {
		return ExpressionUnknown
	}
	switch node.Name {
	case ElementDateExpression:
		return ExpressionDateTime
	case ElementRscExpression:
		return ExpressionResource
	case ElementOpExpression:
		return ExpressionOperation
	case ElementRule:
		return ExpressionRule
	case ElementExpression:
		name, _ := node.Attr(AttrAttribute)
		switch name {
		case NodeAttrUname, NodeAttrKind, NodeAttrID:
			return ExpressionLocation
		}
		return ExpressionAttribute
	}
	return ExpressionUnknown
}
