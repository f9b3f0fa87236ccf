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

// Package version compares dot-separated numeric version strings.
package version

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	formatOnce   sync.Once
	formatRegexp *regexp.Regexp
)

// ValidFormat reports whether v is strictly dot-separated numbers, such as
// "1", "1.0" or "2.10.3".  Free-form versions are legal elsewhere but cannot
// be ordered reliably.
func ValidFormat(v string) bool {
	formatOnce.Do(func() {
		formatRegexp = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)
	})
	return formatRegexp.MatchString(v)
}

// Compare returns -1, 0 or 1 as a is older than, the same as, or newer than
// b.  Missing trailing components count as zero, so "1" equals "1.0".  Each
// component is read as its leading decimal digits.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}
	for i := 0; i < n; i++ {
		av, bv := component(as, i), component(bs, i)
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

func component(parts []string, i int) int64 {
	if i >= len(parts) {
		return 0
	}
	p := parts[i]
	end := 0
	for end < len(p) && p[end] >= '0' && p[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseInt(p[:end], 10, 64)
	if err != nil {
		return math.MaxInt64
	}
	return v
}
