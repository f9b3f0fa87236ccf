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

package util

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMultiCloseNothing(t *testing.T) {
	assert.NoError(t, NewMultiClose().Close())
}

func TestMultiCloseReverseOrder(t *testing.T) {
	assert := assert.New(t)
	var order []string
	mc := NewMultiClose()
	mc.AddCloseFunc(func() { order = append(order, "store") })
	mc.AddCloseWithErrorFunc(func() error {
		order = append(order, "server")
		return nil
	})
	mc.AddCloseFunc(func() { order = append(order, "watcher") })

	assert.NoError(mc.Close())
	assert.Equal([]string{"watcher", "server", "store"}, order)

	// Already closed.
	assert.NoError(mc.Close())
	assert.Len(order, 3)
}

func TestMultiCloseFirstError(t *testing.T) {
	assert := assert.New(t)
	calls := 0
	mc := NewMultiClose()
	mc.AddCloseWithErrorFunc(func() error {
		calls++
		return errors.New("second")
	})
	mc.AddCloseWithErrorFunc(func() error {
		calls++
		return errors.New("first")
	})

	err := mc.Close()
	assert.EqualError(err, "first")
	assert.Equal(2, calls)
}
