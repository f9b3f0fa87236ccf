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
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Range is an inclusive range of non-negative integers.  A missing bound is
// unbounded on that side.
type Range struct {
	Low     int64
	High    int64
	HasLow  bool
	HasHigh bool
}

// ParseRange reads "N", "N-M", "-M" or "N-".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, errors.New("empty range")
	}

	dash := strings.IndexByte(s, '-')
	if dash < 0 {
		n, err := parseBound(s)
		if err != nil {
			return Range{}, err
		}
		return Range{Low: n, High: n, HasLow: true, HasHigh: true}, nil
	}

	var r Range
	lowText, highText := s[:dash], s[dash+1:]
	if lowText == "" && highText == "" {
		return Range{}, errors.Errorf("range %q has no bounds", s)
	}
	if lowText != "" {
		n, err := parseBound(lowText)
		if err != nil {
			return Range{}, err
		}
		r.Low, r.HasLow = n, true
	}
	if highText != "" {
		n, err := parseBound(highText)
		if err != nil {
			return Range{}, err
		}
		r.High, r.HasHigh = n, true
	}
	if r.HasLow && r.HasHigh && r.Low > r.High {
		return Range{}, errors.Errorf("range %q has its low bound above its high bound", s)
	}
	return r, nil
}

func parseBound(s string) (int64, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("%q is not a non-negative integer", s)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%q is out of range", s)
	}
	return n, nil
}

// Check places v relative to r.
func (r Range) Check(v int64) Result {
	if r.HasLow && v < r.Low {
		return ResultBeforeRange
	}
	if r.HasHigh && v > r.High {
		return ResultAfterRange
	}
	return ResultOK
}

func (r Range) String() string {
	switch {
	case r.HasLow && r.HasHigh && r.Low == r.High:
		return strconv.FormatInt(r.Low, 10)
	case r.HasLow && r.HasHigh:
		return fmt.Sprintf("%d-%d", r.Low, r.High)
	case r.HasLow:
		return fmt.Sprintf("%d-", r.Low)
	case r.HasHigh:
		return fmt.Sprintf("-%d", r.High)
	}
	return "-"
}
