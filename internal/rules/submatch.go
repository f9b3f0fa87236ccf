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
)

// ReplaceSubmatches expands %0 through %9 in template with the groups of a
// regular expression match against match.  submatches holds start/end
// offset pairs as returned by regexp.FindStringSubmatchIndex, and nmatches
// limits how many of those groups may be used.
//
// A placeholder for a group that is out of range, did not participate, or
// matched nothing is removed.  The second result is false, and the string
// empty, when the template has no placeholders.
func ReplaceSubmatches(template, match string, submatches []int, nmatches int) (string, bool) {
	if template == "" {
		return "", false
	}

	n, expanded := processSubmatches(template, match, submatches, nmatches, nil)
	if !expanded {
		return "", false
	}

	var b strings.Builder
	b.Grow(n)
	processSubmatches(template, match, submatches, nmatches, &b)
	return b.String(), true
}

// processSubmatches walks template once.  It returns the length of the
// expansion and whether any placeholder was seen, writing the expansion to
// out when out is not nil.
func processSubmatches(template, match string, submatches []int, nmatches int, out *strings.Builder) (int, bool) {
	n := 0
	expanded := false

	for i := 0; i < len(template); {
		if template[i] != '%' || i+1 >= len(template) || !isDigit(template[i+1]) {
			if out != nil {
				out.WriteByte(template[i])
			}
			n++
			i++
			continue
		}

		group := int(template[i+1] - '0')
		i += 2
		expanded = true

		start, end, ok := submatchBounds(match, submatches, nmatches, group)
		if !ok {
			continue
		}
		if out != nil {
			out.WriteString(match[start:end])
		}
		n += end - start
	}
	return n, expanded
}

// submatchBounds returns the offsets of a non-empty group.
func submatchBounds(match string, submatches []int, nmatches, group int) (int, int, bool) {
	if group >= nmatches || 2*group+1 >= len(submatches) {
		return 0, 0, false
	}
	start, end := submatches[2*group], submatches[2*group+1]
	if start < 0 || end <= start || end > len(match) {
		return 0, 0, false
	}
	return start, end, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
