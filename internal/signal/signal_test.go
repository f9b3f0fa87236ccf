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

package signal

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const defaultTimeout = time.Second

func waitWithTimeout(wait func() os.Signal) (os.Signal, bool) {
	result := make(chan os.Signal, 1)
	go func() {
		result <- wait()
	}()
	select {
	case s := <-result:
		return s, true
	case <-time.After(defaultTimeout):
		return nil, false
	}
}

func TestTerminate(t *testing.T) {
	require := require.New(t)
	wait, terminate := New()
	terminate()
	terminate()

	s, ok := waitWithTimeout(wait)
	require.True(ok, "wait should return after terminate")
	require.Nil(s)
}

func TestIndependentWaiters(t *testing.T) {
	require := require.New(t)
	wait, terminate := New()
	wait2, terminate2 := New()
	defer terminate2()

	terminate()
	_, ok := waitWithTimeout(wait)
	require.True(ok)

	result := make(chan os.Signal, 1)
	go func() {
		result <- wait2()
	}()
	select {
	case <-result:
		t.Fatal("wait2 returned before terminate2 was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReceivesSignal(t *testing.T) {
	require := require.New(t)
	wait, terminate := New()
	defer terminate()

	p, err := os.FindProcess(os.Getpid())
	require.NoError(err)
	require.NoError(p.Signal(syscall.SIGTERM))

	s, ok := waitWithTimeout(wait)
	require.True(ok)
	require.Equal(syscall.SIGTERM, s)
}
