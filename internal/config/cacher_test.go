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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestCacherRebuildsOnChange(t *testing.T) {
	testCases := []struct {
		name          string
		first, second interface{}
		get           func(cfg View) interface{}
	}{
		{"IsSet", nil, "bar", func(cfg View) interface{} { return cfg.IsSet("foo") }},
		{"GetString", "bar", "baz", func(cfg View) interface{} { return cfg.GetString("foo") }},
		{"GetInt", 1, 2, func(cfg View) interface{} { return cfg.GetInt("foo") }},
		{"GetBool", true, false, func(cfg View) interface{} { return cfg.GetBool("foo") }},
		{"GetDuration", time.Second, time.Minute, func(cfg View) interface{} { return cfg.GetDuration("foo") }},
		{"GetStringSlice", []string{"1"}, []string{"1", "2"}, func(cfg View) interface{} { return len(cfg.GetStringSlice("foo")) }},
		{"GetStringMapString", map[string]string{"a": "1"}, map[string]string{"a": "2"}, func(cfg View) interface{} { return cfg.GetStringMapString("foo")["a"] }},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)
			cfg := viper.New()
			if tc.first != nil {
				cfg.Set("foo", tc.first)
			}

			calls := 0
			c := NewCacher(cfg, func(cfg View) (interface{}, error) {
				calls++
				return tc.get(cfg), nil
			})

			v1, err := c.Get()
			require.NoError(err)
			_, err = c.Get()
			require.NoError(err)
			require.Equal(1, calls)

			cfg.Set("foo", tc.second)
			v2, err := c.Get()
			require.NoError(err)
			require.Equal(2, calls)
			require.NotEqual(v1, v2)
		})
	}
}

func TestCacherDoesNotCacheErrors(t *testing.T) {
	require := require.New(t)
	calls := 0
	c := NewCacher(viper.New(), func(cfg View) (interface{}, error) {
		calls++
		return nil, errors.New("bad")
	})

	_, err := c.Get()
	require.Error(err)
	_, err = c.Get()
	require.Error(err)
	require.Equal(2, calls)
}
