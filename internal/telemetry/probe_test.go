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
	"net/http"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	var testCases = []struct {
		name        string
		probes      []func(context.Context) error
		errorString string
	}{
		{"alwaysReady", nil, ""},
		{"happy", []func(context.Context) error{func(context.Context) error { return nil }}, ""},
		{"notReady", []func(context.Context) error{
			func(context.Context) error { return nil },
			func(context.Context) error { return errors.New("no evaluation pass yet") },
		}, "no evaluation pass yet"},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			hc := NewHealthCheck(tc.probes)
			sp, ok := hc.(*statefulProbe)
			require.True(ok)
			require.Equal(healthStateFirstProbe, atomic.LoadInt32(sp.healthState))

			// Liveness does not run the probes.
			require.HTTPSuccess(hc.ServeHTTP, http.MethodGet, "/", url.Values{}, "ok")
			require.Equal(healthStateFirstProbe, atomic.LoadInt32(sp.healthState))

			readiness := url.Values{"readiness": []string{"true"}}
			if tc.errorString == "" {
				require.HTTPSuccess(hc.ServeHTTP, http.MethodGet, "/", readiness, "ok")
				require.Equal(healthStateHealthy, atomic.LoadInt32(sp.healthState))
				return
			}
			require.HTTPError(hc.ServeHTTP, http.MethodGet, "/", readiness, tc.errorString)
			require.Equal(healthStateUnhealthy, atomic.LoadInt32(sp.healthState))
		})
	}
}
