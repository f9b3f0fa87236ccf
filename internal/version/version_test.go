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

package version

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	testCases := []struct {
		a, b     string
		expected int
	}{
		{"1.0", "1.0", 0},
		{"1", "1.0", 0},
		{"1.0.0", "1", 0},
		{"1.2", "1.10", -1},
		{"1.10", "1.2", 1},
		{"2", "1.99.99", 1},
		{"0.9", "1", -1},
		{"1.0rc1", "1.0", 0},
		{"abc", "0", 0},
		{"", "0.0", 0},
		{"1..2", "1.0.2", 0},
		{"99999999999999999999", "1", 1},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("Compare(%q, %q) => %d", tc.a, tc.b, tc.expected), func(t *testing.T) {
			require := require.New(t)
			require.Equal(tc.expected, Compare(tc.a, tc.b))
			require.Equal(-tc.expected, Compare(tc.b, tc.a))
		})
	}
}

func TestValidFormat(t *testing.T) {
	testCases := []struct {
		in       string
		expected bool
	}{
		{"1", true},
		{"1.0", true},
		{"2.10.3", true},
		{"", false},
		{"1.", false},
		{".1", false},
		{"1.0rc1", false},
		{"v1.0", false},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("ValidFormat(%q) => %t", tc.in, tc.expected), func(t *testing.T) {
			require.Equal(t, tc.expected, ValidFormat(tc.in))
		})
	}
}

func TestValidFormatConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !ValidFormat("1.2.3") {
				t.Error("ValidFormat(1.2.3) = false")
			}
		}()
	}
	wg.Wait()
}
