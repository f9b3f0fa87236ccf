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

// Package apptest allows testing of binded services within memory.
package apptest

import (
	"net"
	"testing"

	"github.com/pkg/errors"
	"rulekeeper.dev/rulekeeper/internal/appmain"
	"rulekeeper.dev/rulekeeper/internal/config"
)

// TestApp starts binds as one application serving on l and stops it when
// the test ends.  It returns the base URL of the HTTP server.
func TestApp(t *testing.T, cfg config.View, l net.Listener, binds ...appmain.Bind) string {
	getCfg := func() (config.View, error) {
		return cfg, nil
	}
	bindAll := func(p *appmain.Params, b *appmain.Bindings) error {
		for _, bind := range binds {
			if err := bind(p, b); err != nil {
				return err
			}
		}
		return nil
	}

	used := false
	listen := func(network, address string) (net.Listener, error) {
		if used {
			return nil, errors.Errorf("listener for %q was already used", address)
		}
		used = true
		return l, nil
	}

	app, err := appmain.StartApplication("test", bindAll, getCfg, listen)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := app.Stop(); err != nil {
			t.Fatal(err)
		}
	})
	return "http://" + app.Addr().String()
}

// Listen opens a listener on a free local port.
func Listen(t *testing.T) net.Listener {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	return l
}
