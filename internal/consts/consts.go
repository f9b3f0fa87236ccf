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

// Package consts names the configuration keys shared across packages.
package consts

const (
	// Logging settings
	LoggingFormat = "logging.format"
	LoggingLevel  = "logging.level"
	LoggingSource = "logging.source"

	// Rule settings
	RulesPath         = "rules.path"
	RulesTimezone     = "rules.timezone"
	RulesMaxInterval  = "rules.maxInterval"
	RulesRetryBackoff = "rules.retryBackoff"
	RulesNodeAttrs    = "rules.nodeAttributes"

	// Service settings
	RulewatchHTTPPort = "api.rulewatch.httpport"

	// Telemetry settings
	TelemetryPrometheusEnable   = "telemetry.prometheus.enable"
	TelemetryPrometheusEndpoint = "telemetry.prometheus.endpoint"
	TelemetryReportingPeriod    = "telemetry.reportingPeriod"
	TelemetryZpagesEnable       = "telemetry.zpages.enable"
)
