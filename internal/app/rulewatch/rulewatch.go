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

// Package rulewatch continuously evaluates the rules of a constraints file
// and reports when their verdicts change.
package rulewatch

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
	"golang.org/x/sync/errgroup"
	"rulekeeper.dev/rulekeeper/internal/appmain"
	"rulekeeper.dev/rulekeeper/internal/telemetry"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "app.rulewatch",
	})

	keyVerdict = tag.MustNewKey("verdict")

	ruleEvaluations = stats.Int64("rulekeeper.dev/rulewatch/rule_evaluations", "Number of rule evaluations", stats.UnitDimensionless)
	verdictChanges  = stats.Int64("rulekeeper.dev/rulewatch/verdict_changes", "Number of rule verdict changes", stats.UnitDimensionless)
	rulesPerPass    = stats.Int64("rulekeeper.dev/rulewatch/rules_per_pass", "Number of rules evaluated per pass", stats.UnitDimensionless)
	loadFailures    = stats.Int64("rulekeeper.dev/rulewatch/load_failures", "Number of failed attempts to load the rules file", stats.UnitDimensionless)
	passLatency     = stats.Float64("rulekeeper.dev/rulewatch/pass_latency", "Time elapsed loading and evaluating the rules file", stats.UnitMilliseconds)

	ruleEvaluationsView = &view.View{
		Measure:     ruleEvaluations,
		Name:        "rulekeeper.dev/rulewatch/rule_evaluations",
		Description: "Rule evaluations by verdict",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{keyVerdict},
	}
	verdictChangesView = &view.View{
		Measure:     verdictChanges,
		Name:        "rulekeeper.dev/rulewatch/verdict_changes",
		Description: "Rule verdict changes",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{keyVerdict},
	}
	rulesPerPassView = &view.View{
		Measure:     rulesPerPass,
		Name:        "rulekeeper.dev/rulewatch/rules_per_pass",
		Description: "Rules per evaluation pass",
		Aggregation: telemetry.DefaultCountDistribution,
	}
	loadFailuresView = &view.View{
		Measure:     loadFailures,
		Name:        "rulekeeper.dev/rulewatch/load_failures",
		Description: "Failed attempts to load the rules file",
		Aggregation: view.Count(),
	}
	passLatencyView = &view.View{
		Measure:     passLatency,
		Name:        "rulekeeper.dev/rulewatch/pass_latency",
		Description: "Time elapsed per evaluation pass",
		Aggregation: telemetry.DefaultMillisecondsDistribution,
	}
)

// StatusEndpoint serves the verdicts of the latest evaluation pass.
const StatusEndpoint = "/rules"

// BindService creates the rule watcher and binds it to the serving harness.
func BindService(p *appmain.Params, b *appmain.Bindings) error {
	w, err := newWatcher(p.Config(), p.Now())
	if err != nil {
		return err
	}

	b.RegisterViews(
		ruleEvaluationsView,
		verdictChangesView,
		rulesPerPassView,
		loadFailuresView,
		passLatencyView,
	)
	b.AddHealthCheckFunc(w.healthCheck)
	b.TelemetryHandleFunc(StatusEndpoint, w.serveStatus)
	b.TelemetryHandleFunc(StreamEndpoint, w.serveStream)

	ctx, cancel := context.WithCancel(context.Background())
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return w.watchFiles(ctx)
	})
	eg.Go(func() error {
		return w.run(ctx)
	})

	b.AddCloserErr(func() error {
		cancel()
		err := eg.Wait()
		if cerr := w.close(); err == nil {
			err = cerr
		}
		if err == context.Canceled {
			return nil
		}
		return err
	})
	return nil
}

func (w *watcher) healthCheck(ctx context.Context) error {
	if w.latest() == nil {
		return errors.New("rules have not been evaluated yet")
	}
	return nil
}

func (w *watcher) serveStatus(rw http.ResponseWriter, req *http.Request) {
	st := w.latest()
	if st == nil {
		http.Error(rw, "rules have not been evaluated yet", http.StatusServiceUnavailable)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(rw).Encode(st); err != nil {
		logger.WithError(err).Warning("cannot write rule status")
	}
}
