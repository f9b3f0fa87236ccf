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

// Configuration element names.
const (
	ElementRule           = "rule"
	ElementExpression     = "expression"
	ElementDateExpression = "date_expression"
	ElementDateSpec       = "date_spec"
	ElementDuration       = "duration"
	ElementRscExpression  = "rsc_expression"
	ElementOpExpression   = "op_expression"
)

// Configuration attribute names.
const (
	AttrID          = "id"
	AttrBooleanOp   = "boolean-op"
	AttrOperation   = "operation"
	AttrStart       = "start"
	AttrEnd         = "end"
	AttrAttribute   = "attribute"
	AttrValue       = "value"
	AttrValueSource = "value-source"
	AttrType        = "type"
	AttrClass       = "class"
	AttrProvider    = "provider"
	AttrName        = "name"
	AttrInterval    = "interval"

	AttrYears     = "years"
	AttrMonths    = "months"
	AttrMonthDays = "monthdays"
	AttrHours     = "hours"
	AttrMinutes   = "minutes"
	AttrSeconds   = "seconds"
	AttrYearDays  = "yeardays"
	AttrWeekYears = "weekyears"
	AttrWeeks     = "weeks"
	AttrWeekDays  = "weekdays"
	AttrMoon      = "moon"
)

// Reserved node attributes that make an expression a location expression.
const (
	NodeAttrUname = "#uname"
	NodeAttrKind  = "#kind"
	NodeAttrID    = "#id"
)

const (
	missingID = "without ID"
)
