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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"rulekeeper.dev/rulekeeper/internal/consts"
)

func TestReadFile(t *testing.T) {
	require := require.New(t)
	path := filepath.Join(t.TempDir(), "rulekeeper.yaml")
	require.NoError(os.WriteFile(path, []byte(`
rules:
  path: /var/lib/rulekeeper/rules.xml
  maxInterval: 30s
logging:
  level: debug
`), 0o600))

	cfg, err := ReadFile(path)
	require.NoError(err)
	require.Equal("/var/lib/rulekeeper/rules.xml", cfg.GetString(consts.RulesPath))
	require.Equal(30*time.Second, cfg.GetDuration(consts.RulesMaxInterval))
	require.Equal("debug", cfg.GetString(consts.LoggingLevel))

	// Defaults fill in what the file leaves out.
	require.Equal("UTC", cfg.GetString(consts.RulesTimezone))
	require.Equal("[1 30] *2 ~0.2 <0", cfg.GetString(consts.RulesRetryBackoff))
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	require := require.New(t)
	cfg := Defaults()
	require.Equal(5*time.Minute, cfg.GetDuration(consts.RulesMaxInterval))
	require.Equal("/metrics", cfg.GetString(consts.TelemetryPrometheusEndpoint))
	require.False(cfg.GetBool(consts.TelemetryPrometheusEnable))

	cfg.Set(consts.RulesPath, "rules.xml")
	require.Equal("rules.xml", cfg.GetString(consts.RulesPath))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RULEKEEPER_RULES_TIMEZONE", "Asia/Tokyo")
	require.Equal(t, "Asia/Tokyo", Defaults().GetString(consts.RulesTimezone))
}

func TestBindFlags(t *testing.T) {
	require := require.New(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("timezone", "Europe/Paris", "")
	fs.String("log-level", "", "")
	flags := map[string]string{
		consts.RulesTimezone: "timezone",
		consts.LoggingLevel:  "log-level",
	}

	cfg := Defaults()
	require.NoError(BindFlags(cfg, fs, flags))
	require.NoError(fs.Parse([]string{"--log-level=debug"}))

	require.Equal("debug", cfg.GetString(consts.LoggingLevel))
	// An unset flag does not hide the configured default.
	require.Equal("UTC", cfg.GetString(consts.RulesTimezone))

	require.Error(BindFlags(cfg, fs, map[string]string{consts.RulesPath: "rules"}))
}
