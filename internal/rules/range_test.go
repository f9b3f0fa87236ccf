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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	testCases := []struct {
		in       string
		expected Range
	}{
		{"5", Range{Low: 5, High: 5, HasLow: true, HasHigh: true}},
		{"0", Range{Low: 0, High: 0, HasLow: true, HasHigh: true}},
		{"6-8", Range{Low: 6, High: 8, HasLow: true, HasHigh: true}},
		{"8-8", Range{Low: 8, High: 8, HasLow: true, HasHigh: true}},
		{"-8", Range{High: 8, HasHigh: true}},
		{"6-", Range{Low: 6, HasLow: true}},
		{" 9-16 ", Range{Low: 9, High: 16, HasLow: true, HasHigh: true}},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			require := require.New(t)
			actual, err := ParseRange(tc.in)
			require.NoError(err)
			require.Equal(tc.expected, actual)
		})
	}
}

func TestParseRangeInvalid(t *testing.T) {
	for _, in := range []string{"", "-", "8-6", "a", "1-b", "1-2-3", "--1", "1.5", "+3", "99999999999999999999"} {
		_, err := ParseRange(in)
		assert.Error(t, err, in)
	}
}

func TestRangeCheck(t *testing.T) {
	assert := assert.New(t)
	bounded := Range{Low: 6, High: 8, HasLow: true, HasHigh: true}
	assert.Equal(ResultBeforeRange, bounded.Check(5))
	assert.Equal(ResultOK, bounded.Check(6))
	assert.Equal(ResultOK, bounded.Check(8))
	assert.Equal(ResultAfterRange, bounded.Check(9))

	openLow := Range{High: 8, HasHigh: true}
	assert.Equal(ResultOK, openLow.Check(0))
	assert.Equal(ResultAfterRange, openLow.Check(9))

	openHigh := Range{Low: 6, HasLow: true}
	assert.Equal(ResultBeforeRange, openHigh.Check(5))
	assert.Equal(ResultOK, openHigh.Check(1<<40))
}

func TestRangeString(t *testing.T) {
	assert := assert.New(t)
	for _, in := range []string{"5", "6-8", "-8", "6-"} {
		r, err := ParseRange(in)
		assert.NoError(err)
		assert.Equal(in, r.String())
	}
}
