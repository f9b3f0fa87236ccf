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
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamEndpoint upgrades to a websocket that receives a Status after every
// evaluation pass, starting with the latest one.
const StreamEndpoint = "/rules/watch"

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// hub fans statuses out to stream subscribers.  A slow subscriber only ever
// sees the most recent status.
type hub struct {
	m      sync.Mutex
	subs   map[chan *Status]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: map[chan *Status]struct{}{}}
}

// subscribe returns nil once the hub is closed.
func (h *hub) subscribe() (<-chan *Status, func()) {
	h.m.Lock()
	defer h.m.Unlock()
	if h.closed {
		return nil, func() {}
	}
	ch := make(chan *Status, 1)
	h.subs[ch] = struct{}{}
	return ch, func() {
		h.m.Lock()
		defer h.m.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) broadcast(st *Status) {
	h.m.Lock()
	defer h.m.Unlock()
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (h *hub) len() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.subs)
}

func (h *hub) close() {
	h.m.Lock()
	defer h.m.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

func (w *watcher) serveStream(rw http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		logger.WithError(err).Debug("cannot upgrade rule stream")
		return
	}
	defer conn.Close()

	updates, unsubscribe := w.hub.subscribe()
	defer unsubscribe()
	if updates == nil {
		closeStream(conn)
		return
	}

	// Clients only ever close the stream; anything else they send is dropped.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if st := w.latest(); st != nil {
		if err := writeStatus(conn, st); err != nil {
			return
		}
	}
	for {
		select {
		case <-gone:
			return
		case st, ok := <-updates:
			if !ok {
				closeStream(conn)
				return
			}
			if err := writeStatus(conn, st); err != nil {
				logger.WithError(err).Debug("dropping rule stream subscriber")
				return
			}
		}
	}
}

func writeStatus(conn *websocket.Conn, st *Status) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(st)
}

func closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "rule watcher stopping")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
