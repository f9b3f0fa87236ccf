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

// Package signal waits for the process to be asked to stop.
package signal

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// New returns wait, which blocks until the process receives SIGTERM or
// SIGINT or terminate is called, and terminate.  wait returns the signal
// received, or nil after terminate.  terminate may be called more than once.
func New() (wait func() os.Signal, terminate func()) {
	received := make(chan os.Signal, 1)
	signal.Notify(received, syscall.SIGTERM, syscall.SIGINT)

	done := make(chan struct{})
	var once sync.Once
	terminate = func() {
		once.Do(func() { close(done) })
	}
	wait = func() os.Signal {
		defer signal.Stop(received)
		select {
		case s := <-received:
			return s
		case <-done:
			return nil
		}
	}
	return wait, terminate
}
