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
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

func newInput() *RuleInput {
	return &RuleInput{
		Now: utc(2024, 3, 15, 10, 0, 0),
		NodeAttrs: map[string]string{
			"#uname":  "node1",
			"#kind":   "cluster",
			"cpus":    "16",
			"load":    "0.75",
			"site":    "eu",
			"fw":      "2.10",
			"web-eu":  "primary",
			"storage": "ssd",
		},
		RscStandard: "ocf",
		RscProvider: "heartbeat",
		RscAgent:    "IPaddr2",
		OpName:      "monitor",
		OpInterval:  10 * time.Second,
		RscParams:   map[string]string{"wanted_site": "eu"},
		RscMeta:     map[string]string{"min_cpus": "8"},
	}
}

func expr(attrs ...string) *xmltree.Node {
	return xmltree.New("expression", append([]string{"id", "x"}, attrs...)...)
}

func rule(attrs ...string) *xmltree.Node {
	return xmltree.New("rule", append([]string{"id", "r"}, attrs...)...)
}

func TestAttributeExpressions(t *testing.T) {
	testCases := []struct {
		name     string
		node     *xmltree.Node
		expected Result
	}{
		{"uname", expr("attribute", "#uname", "operation", "eq", "value", "NODE1"), ResultOK},
		{"unameNe", expr("attribute", "#uname", "operation", "ne", "value", "node2"), ResultOK},
		{"defined", expr("attribute", "cpus", "operation", "defined"), ResultOK},
		{"notDefined", expr("attribute", "gpus", "operation", "not_defined"), ResultOK},
		{"definedMissing", expr("attribute", "gpus", "operation", "defined"), ResultUnsatisfied},
		{"integerDefault", expr("attribute", "cpus", "operation", "gt", "value", "9"), ResultOK},
		{"stringExplicit", expr("attribute", "cpus", "operation", "gt", "value", "9", "type", "string"), ResultUnsatisfied},
		{"numberDefault", expr("attribute", "load", "operation", "lt", "value", "1"), ResultOK},
		{"version", expr("attribute", "fw", "operation", "gte", "value", "2.9", "type", "version"), ResultOK},
		{"lteEqual", expr("attribute", "cpus", "operation", "lte", "value", "16"), ResultOK},
		{"missingAttrOrdering", expr("attribute", "gpus", "operation", "lt", "value", "1"), ResultUnsatisfied},
		{"missingAttrEq", expr("attribute", "gpus", "operation", "eq", "value", "1"), ResultUnsatisfied},
		{"missingAttrNe", expr("attribute", "gpus", "operation", "ne", "value", "1"), ResultOK},
		{"param", expr("attribute", "site", "operation", "eq", "value", "wanted_site", "value-source", "param"), ResultOK},
		{"meta", expr("attribute", "cpus", "operation", "gte", "value", "min_cpus", "value-source", "meta"), ResultOK},
		{"missingParam", expr("attribute", "site", "operation", "gt", "value", "nope", "value-source", "param"), ResultUnsatisfied},
		{"badValueSource", expr("attribute", "site", "operation", "eq", "value", "eu", "value-source", "env"), ResultUndetermined},
		{"badOperation", expr("attribute", "site", "operation", "like", "value", "eu"), ResultUndetermined},
		{"badType", expr("attribute", "site", "operation", "eq", "value", "eu", "type", "float"), ResultUndetermined},
		{"missingValue", expr("attribute", "site", "operation", "eq"), ResultUndetermined},
		{"missingAttribute", expr("operation", "eq", "value", "eu"), ResultUndetermined},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			actual, err := EvaluateRule(rule().Append(tc.node), newInput(), nil)
			require.NoError(err)
			require.Equal(tc.expected, actual)
		})
	}
}

func TestAttributeNameSubmatches(t *testing.T) {
	require := require.New(t)
	input := newInput()
	re := regexp.MustCompile(`^(\w+)-rsc$`)
	input.Match = "web-rsc"
	input.Submatches = re.FindStringSubmatchIndex(input.Match)
	input.NumMatches = re.NumSubexp() + 1

	r := rule().Append(expr("attribute", "%1-%2eu", "operation", "eq", "value", "primary"))
	actual, err := EvaluateRule(r, input, nil)
	require.NoError(err)
	require.Equal(ResultOK, actual)
}

func TestResourceAndOperationExpressions(t *testing.T) {
	testCases := []struct {
		name     string
		node     *xmltree.Node
		expected Result
	}{
		{"rscAll", xmltree.New("rsc_expression", "id", "x", "class", "ocf", "provider", "heartbeat", "type", "IPaddr2"), ResultOK},
		{"rscClassOnly", xmltree.New("rsc_expression", "id", "x", "class", "ocf"), ResultOK},
		{"rscWrongType", xmltree.New("rsc_expression", "id", "x", "class", "ocf", "type", "Dummy"), ResultUnsatisfied},
		{"rscNone", xmltree.New("rsc_expression", "id", "x"), ResultOK},
		{"op", xmltree.New("op_expression", "id", "x", "name", "monitor"), ResultOK},
		{"opInterval", xmltree.New("op_expression", "id", "x", "name", "monitor", "interval", "10s"), ResultOK},
		{"opIntervalSeconds", xmltree.New("op_expression", "id", "x", "name", "monitor", "interval", "10"), ResultOK},
		{"opIntervalISO", xmltree.New("op_expression", "id", "x", "name", "monitor", "interval", "PT10S"), ResultOK},
		{"opIntervalDiffers", xmltree.New("op_expression", "id", "x", "name", "monitor", "interval", "20s"), ResultUnsatisfied},
		{"opIntervalInvalid", xmltree.New("op_expression", "id", "x", "name", "monitor", "interval", "often"), ResultUndetermined},
		{"opWrongName", xmltree.New("op_expression", "id", "x", "name", "start"), ResultUnsatisfied},
		{"opNoName", xmltree.New("op_expression", "id", "x"), ResultUndetermined},
		{"unknownElement", xmltree.New("instance_attributes", "id", "x"), ResultUndetermined},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			actual, err := EvaluateRule(rule().Append(tc.node), newInput(), nil)
			require.NoError(err)
			require.Equal(tc.expected, actual)
		})
	}
}

func TestBooleanOperators(t *testing.T) {
	pass := func() *xmltree.Node { return expr("attribute", "site", "operation", "eq", "value", "eu") }
	fail := func() *xmltree.Node { return expr("attribute", "site", "operation", "eq", "value", "us") }
	soon := func() *xmltree.Node {
		return xmltree.New("date_expression", "id", "d", "operation", "gt", "start", "2024-03-16")
	}

	testCases := []struct {
		name     string
		node     *xmltree.Node
		expected Result
		next     iso8601.Instant
	}{
		{"andPass", rule().Append(pass(), pass()), ResultOK, iso8601.Instant{}},
		{"andFail", rule().Append(pass(), fail()), ResultUnsatisfied, iso8601.Instant{}},
		{"andShortCircuits", rule().Append(fail(), soon()), ResultUnsatisfied, iso8601.Instant{}},
		{"andDate", rule().Append(pass(), soon()), ResultBeforeRange, utc(2024, 3, 16, 0, 0, 1)},
		{"orPass", rule("boolean-op", "or").Append(fail(), pass()), ResultOK, iso8601.Instant{}},
		{"orShortCircuits", rule("boolean-op", "OR").Append(pass(), soon()), ResultOK, iso8601.Instant{}},
		{"orFail", rule("boolean-op", "or").Append(soon(), fail()), ResultUnsatisfied, utc(2024, 3, 16, 0, 0, 1)},
		{"badOp", rule("boolean-op", "xor").Append(pass()), ResultUndetermined, iso8601.Instant{}},
		{"empty", rule(), ResultOK, iso8601.Instant{}},
		{"emptyOr", rule("boolean-op", "or"), ResultOK, iso8601.Instant{}},
		{"nested", rule("boolean-op", "or").Append(fail(), rule().Append(pass(), pass())), ResultOK, iso8601.Instant{}},
		{"nestedDate", rule().Append(rule("boolean-op", "or").Append(fail(), soon())), ResultBeforeRange, utc(2024, 3, 16, 0, 0, 1)},
		{"withinRangeIsOK", rule().Append(xmltree.New("date_expression", "id", "d", "start", "2024-01-01")), ResultOK, iso8601.Instant{}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			var next iso8601.Instant
			actual, err := EvaluateRule(tc.node, newInput(), &next)
			require.NoError(err)
			require.Equal(tc.expected, actual)
			require.True(tc.next.Equal(next), "expected next change %s, got %s", tc.next, next)
		})
	}
}

func TestEvaluateRuleInvalidArguments(t *testing.T) {
	assert := assert.New(t)
	_, err := EvaluateRule(nil, newInput(), nil)
	assert.Equal(ErrInvalidArgument, errors.Cause(err))

	_, err = EvaluateRule(rule(), nil, nil)
	assert.Equal(ErrInvalidArgument, errors.Cause(err))

	_, err = EvaluateRule(rule(), &RuleInput{}, nil)
	assert.Equal(ErrInvalidArgument, errors.Cause(err))
}

const constraints = `<constraints>
  <rsc_location id="loc1">
    <rule id="business-hours">
      <date_expression id="bh" operation="date_spec">
        <date_spec id="bh-spec" hours="9-16" weekdays="1-5"/>
      </date_expression>
    </rule>
  </rsc_location>
  <rsc_location id="loc2">
    <rule id="after-migration" boolean-op="or">
      <date_expression id="m" operation="gt" start="2024-04-01"/>
      <rule id="nested">
        <expression id="e" attribute="site" operation="eq" value="us"/>
      </rule>
    </rule>
  </rsc_location>
  <rule id="maintenance">
    <date_expression id="w" start="2024-03-15 08:00:00Z" end="2024-03-15 12:00:00Z"/>
  </rule>
</constraints>`

func TestLoadAndEvaluateRules(t *testing.T) {
	require := require.New(t)
	root, err := xmltree.ParseString(constraints)
	require.NoError(err)

	rules := LoadRules(root)
	require.Len(rules, 3)

	outcomes, next, err := EvaluateRules(rules, newInput())
	require.NoError(err)
	require.Equal([]Outcome{
		{ID: "business-hours", Result: ResultOK},
		{ID: "after-migration", Result: ResultUnsatisfied},
		{ID: "maintenance", Result: ResultOK},
	}, outcomes)
	require.True(utc(2024, 3, 15, 12, 0, 1).Equal(next), "got %s", next)

	_, _, err = EvaluateRules(rules, &RuleInput{})
	require.Equal(ErrInvalidArgument, errors.Cause(err))
}

func TestLoadRules(t *testing.T) {
	assert := assert.New(t)
	assert.Nil(LoadRules(nil))
	r := rule().Append(rule())
	assert.Equal([]*xmltree.Node{r}, LoadRules(r))
}

func TestParseInterval(t *testing.T) {
	testCases := []struct {
		in       string
		expected time.Duration
	}{
		{"0", 0},
		{"30", 30 * time.Second},
		{"1m30s", 90 * time.Second},
		{"500ms", 500 * time.Millisecond},
		{"PT1H", time.Hour},
		{"P1DT1S", 24*time.Hour + time.Second},
		{" 15 ", 15 * time.Second},
		{"9223372036", 9223372036 * time.Second},
		{"PT9223372036S", 9223372036 * time.Second},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			actual, err := ParseInterval(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}

	for _, in := range []string{"", "-5", "-1s", "P1M", "fast", "-PT1S",
		"9223372037", "9999999999999", "18446744074",
		"P99999999999W", "PT9223372037S", "P15250W2D", "PT2562047788015216H"} {
		_, err := ParseInterval(in)
		assert.Error(t, err, in)
	}
}
