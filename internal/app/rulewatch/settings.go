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

package rulewatch

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/consts"
	"rulekeeper.dev/rulekeeper/internal/expbo"
	"rulekeeper.dev/rulekeeper/internal/rules"
)

const defaultMaxInterval = 5 * time.Minute

type settings struct {
	path        string
	location    *time.Location
	maxInterval time.Duration
	retry       string
	nodeAttrs   map[string]string
}

func newSettings(cfg config.View) (interface{}, error) {
	s := &settings{
		path:        cfg.GetString(consts.RulesPath),
		maxInterval: cfg.GetDuration(consts.RulesMaxInterval),
		retry:       cfg.GetString(consts.RulesRetryBackoff),
		nodeAttrs:   map[string]string{},
	}
	if s.path == "" {
		return nil, errors.Errorf("%s is not set", consts.RulesPath)
	}

	var err error
	s.location, err = time.LoadLocation(cfg.GetString(consts.RulesTimezone))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s", consts.RulesTimezone)
	}

	if s.maxInterval <= 0 {
		logger.WithField("maxInterval", cfg.GetString(consts.RulesMaxInterval)).
			Infof("Invalid %s, defaulting to %s", consts.RulesMaxInterval, defaultMaxInterval)
		s.maxInterval = defaultMaxInterval
	}

	if _, err = expbo.New(s.retry); err != nil {
		return nil, errors.Wrapf(err, "invalid %s", consts.RulesRetryBackoff)
	}

	// Attribute names arrive lowercased from viper.
	for k, v := range cfg.GetStringMapString(consts.RulesNodeAttrs) {
		s.nodeAttrs[k] = v
	}
	if _, ok := s.nodeAttrs[rules.NodeAttrUname]; !ok {
		host, err := os.Hostname()
		if err != nil {
			return nil, errors.Wrap(err, "cannot determine node name")
		}
		s.nodeAttrs[rules.NodeAttrUname] = host
	}
	return s, nil
}
