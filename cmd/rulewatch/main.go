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

// Package main is the rule watcher service.  It re-evaluates a constraints
// file whenever the file changes or a rule's verdict is due to change.
package main

import (
	"rulekeeper.dev/rulekeeper/internal/app/rulewatch"
	"rulekeeper.dev/rulekeeper/internal/appmain"
)

func main() {
	appmain.RunApplication("rulewatch", rulewatch.BindService)
}
