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

// Package rules evaluates the rule expressions that gate placement and
// option decisions: date ranges, cron-like date specifications, typed
// attribute comparisons and regular expression submatch templates.
//
// Every entry point is a pure function of its arguments.  Malformed
// configuration never fails an evaluation outright; it is logged against the
// offending element and converted to a conservative Result.  Only missing
// required arguments are reported as errors, and those wrap
// ErrInvalidArgument.
package rules
