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

// Package telemetry binds metrics, health checks and debug pages to the
// HTTP server of a rulekeeper binary.
package telemetry

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/consts"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "telemetry",
	})
)

// Params are the application inputs telemetry needs.
type Params interface {
	Config() config.View
	ServiceName() string
}

// Bindings receives the handlers and closers telemetry sets up.
type Bindings interface {
	TelemetryHandle(pattern string, handler http.Handler)
	TelemetryHandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request))
	AddCloser(c func())
	AddCloserErr(c func() error)
}

// Setup configures the telemetry for the server.
func Setup(p Params, b Bindings) error {
	bindings := []func(p Params, b Bindings) error{
		bindPrometheus,
		bindZpages,
		bindHelp,
		bindConfigz,
	}
	for _, f := range bindings {
		if err := f(p, b); err != nil {
			return err
		}
	}

	reportingPeriod := p.Config().GetDuration(consts.TelemetryReportingPeriod)
	if reportingPeriod <= 0 {
		logger.WithFields(logrus.Fields{
			"reportingPeriod": p.Config().GetString(consts.TelemetryReportingPeriod),
		}).Info("Invalid telemetry.reportingPeriod, defaulting to 1m")
		reportingPeriod = defaultReportingPeriod
	}
	// Change the frequency of updates to the metrics endpoint
	view.SetReportingPeriod(reportingPeriod)

	logger.WithFields(logrus.Fields{
		"service":         p.ServiceName(),
		"reportingPeriod": reportingPeriod,
	}).Info("telemetry has been configured.")
	return nil
}
