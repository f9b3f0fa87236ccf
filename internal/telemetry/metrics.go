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

package telemetry

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const (
	defaultReportingPeriod = time.Minute
)

// Default histogram distributions
var (
	DefaultMillisecondsDistribution = view.Distribution(0.01, 0.05, 0.1, 0.3, 0.6, 0.8, 1, 2, 3, 4, 5, 6, 8, 10, 13, 16, 20, 25, 30, 40, 50, 65, 80, 100, 130, 160, 200, 250, 300, 400, 500, 650, 800, 1000, 2000, 5000)
	DefaultCountDistribution        = view.Distribution(1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024)
)

// RecordUnitMeasurement records a single occurrence of m.
func RecordUnitMeasurement(ctx context.Context, m *stats.Int64Measure, mutators ...tag.Mutator) {
	RecordNUnitMeasurement(ctx, m, 1, mutators...)
}

// RecordNUnitMeasurement records n for m.
func RecordNUnitMeasurement(ctx context.Context, m *stats.Int64Measure, n int64, mutators ...tag.Mutator) {
	record(ctx, m.M(n), mutators)
}

// RecordDuration records d in milliseconds.
func RecordDuration(ctx context.Context, m *stats.Float64Measure, d time.Duration, mutators ...tag.Mutator) {
	record(ctx, m.M(float64(d)/float64(time.Millisecond)), mutators)
}

func record(ctx context.Context, measurement stats.Measurement, mutators []tag.Mutator) {
	if err := stats.RecordWithTags(ctx, mutators, measurement); err != nil {
		logger.WithError(err).Infof("cannot record stat with tags %#v", mutators)
	}
}
