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
	"reflect"
	"sync"
	"time"
)

// Cacher memoizes a value derived from a View.  The value is rebuilt the
// next time it is requested after any configuration value read while
// building it has changed.
type Cacher struct {
	cfg   View
	build func(View) (interface{}, error)

	m sync.Mutex
	r *recordingView
	v interface{}
}

// NewCacher returns a Cacher that builds its value with f.
func NewCacher(cfg View, f func(View) (interface{}, error)) *Cacher {
	return &Cacher{cfg: cfg, build: f}
}

// Get returns the cached value, rebuilding it when the configuration it
// depends on has changed.  A failed build is not cached.
func (c *Cacher) Get() (interface{}, error) {
	c.m.Lock()
	defer c.m.Unlock()

	if c.r == nil || c.r.changed() {
		r := &recordingView{cfg: c.cfg}
		v, err := c.build(r)
		if err != nil {
			c.r, c.v = nil, nil
			return nil, err
		}
		c.r, c.v = r, v
	}
	return c.v, nil
}

// recordingView remembers every read so it can tell when the underlying
// configuration has moved on.
type recordingView struct {
	cfg   View
	reads []func() bool
}

func remember[T any](r *recordingView, get func(string) T, key string) T {
	v := get(key)
	r.reads = append(r.reads, func() bool {
		return !reflect.DeepEqual(get(key), v)
	})
	return v
}

func (r *recordingView) changed() bool {
	for _, differs := range r.reads {
		if differs() {
			return true
		}
	}
	return false
}

func (r *recordingView) IsSet(k string) bool {
	return remember(r, r.cfg.IsSet, k)
}

func (r *recordingView) GetString(k string) string {
	return remember(r, r.cfg.GetString, k)
}

func (r *recordingView) GetInt(k string) int {
	return remember(r, r.cfg.GetInt, k)
}

func (r *recordingView) GetBool(k string) bool {
	return remember(r, r.cfg.GetBool, k)
}

func (r *recordingView) GetDuration(k string) time.Duration {
	return remember(r, r.cfg.GetDuration, k)
}

func (r *recordingView) GetStringSlice(k string) []string {
	return remember(r, r.cfg.GetStringSlice, k)
}

func (r *recordingView) GetStringMapString(k string) map[string]string {
	return remember(r, r.cfg.GetStringMapString, k)
}
