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

// Package config contains convenience functions for reading and managing viper configs.
package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"rulekeeper.dev/rulekeeper/internal/consts"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "config",
	})
)

const (
	configName = "rulekeeper"
	envPrefix  = "RULEKEEPER"
)

// Read finds rulekeeper.yaml in the working directory or /etc/rulekeeper,
// binds RULEKEEPER_ environment variables, and watches the file for changes.
func Read() (View, error) {
	cfg := newViper()
	cfg.SetConfigName(configName)
	cfg.AddConfigPath(".")
	cfg.AddConfigPath("/etc/rulekeeper")

	if err := cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "cannot read configuration")
		}
		logger.Info("No configuration file found, using defaults and environment")
		return cfg, nil
	}

	watch(cfg)
	return cfg, nil
}

// ReadFile reads a single configuration file.  The file is not watched.
func ReadFile(path string) (Mutable, error) {
	cfg := newViper()
	cfg.SetConfigFile(path)
	if err := cfg.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "cannot read configuration from %s", path)
	}
	return cfg, nil
}

// Defaults returns a configuration holding only the default values.
func Defaults() Mutable {
	return newViper()
}

// BindFlags lets command line flags override configuration keys.  flags maps
// configuration keys to flag names.  Flags left unset do not override values
// from files, the environment, or defaults.
func BindFlags(cfg Mutable, fs *pflag.FlagSet, flags map[string]string) error {
	v, ok := cfg.(*viper.Viper)
	if !ok {
		return errors.New("flags can only be bound to a viper configuration")
	}
	for key, name := range flags {
		f := fs.Lookup(name)
		if f == nil {
			return errors.Errorf("cannot bind %s: no flag --%s", key, name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "cannot bind %s to --%s", key, name)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	cfg := viper.New()
	cfg.SetConfigType("yaml")
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(consts.LoggingFormat, "text")
	cfg.SetDefault(consts.LoggingLevel, "info")
	cfg.SetDefault(consts.RulesTimezone, "UTC")
	cfg.SetDefault(consts.RulesMaxInterval, 5*time.Minute)
	cfg.SetDefault(consts.RulesRetryBackoff, "[1 30] *2 ~0.2 <0")
	cfg.SetDefault(consts.RulewatchHTTPPort, 51510)
	cfg.SetDefault(consts.TelemetryPrometheusEndpoint, "/metrics")
	cfg.SetDefault(consts.TelemetryReportingPeriod, time.Minute)
	return cfg
}

func watch(cfg *viper.Viper) {
	cfg.WatchConfig()
	cfg.OnConfigChange(func(event fsnotify.Event) {
		logger.WithFields(logrus.Fields{
			"filename":  event.Name,
			"operation": event.Op.String(),
		}).Info("Server configuration changed.")
	})
}
