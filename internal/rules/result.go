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
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "rules",
	})

	// ErrInvalidArgument is returned when a required argument is missing.
	// It is never used for a configuration problem.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Result is the verdict of evaluating an expression.
type Result int

const (
	// ResultOK means the expression passed.
	ResultOK Result = iota
	// ResultWithinRange means the evaluation time is inside a date range.
	ResultWithinRange
	// ResultBeforeRange means the evaluation time precedes a date range.
	ResultBeforeRange
	// ResultAfterRange means the evaluation time follows a date range.
	ResultAfterRange
	// ResultUndetermined means the expression could not be evaluated, usually
	// because of invalid or missing configuration.  It does not pass.
	ResultUndetermined
	// ResultUnsatisfied means a non-temporal expression (an attribute,
	// resource or operation test) was evaluated and did not hold.  Date
	// expressions never produce it.
	ResultUnsatisfied
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultWithinRange:
		return "within range"
	case ResultBeforeRange:
		return "before range"
	case ResultAfterRange:
		return "after range"
	case ResultUndetermined:
		return "undetermined"
	case ResultUnsatisfied:
		return "unsatisfied"
	}
	return "unknown result"
}

// Passed reports whether r lets the enclosing rule apply.
func (r Result) Passed() bool {
	return r == ResultOK || r == ResultWithinRange
}

func invalidArgument(what string) error {
	return errors.Wrap(ErrInvalidArgument, what)
}
