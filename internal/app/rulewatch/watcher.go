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
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/tag"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/expbo"
	"rulekeeper.dev/rulekeeper/internal/iso8601"
	"rulekeeper.dev/rulekeeper/internal/rules"
	"rulekeeper.dev/rulekeeper/internal/telemetry"
	"rulekeeper.dev/rulekeeper/internal/xmltree"
)

// RuleStatus is the verdict of one rule in a Status.
type RuleStatus struct {
	ID      string `json:"id"`
	Verdict string `json:"verdict"`
	Passed  bool   `json:"passed"`
}

// Status describes one evaluation pass.
type Status struct {
	PassID      string       `json:"passId"`
	Path        string       `json:"path"`
	EvaluatedAt time.Time    `json:"evaluatedAt"`
	NextChange  *time.Time   `json:"nextChange,omitempty"`
	Rules       []RuleStatus `json:"rules"`
}

type watcher struct {
	settings *config.Cacher
	now      func() time.Time
	files    *fsnotify.Watcher
	wake     chan struct{}
	hub      *hub

	m       sync.RWMutex
	status  *Status
	watched string
}

func newWatcher(cfg config.View, now func() time.Time) (*watcher, error) {
	settings := config.NewCacher(cfg, newSettings)
	if _, err := settings.Get(); err != nil {
		return nil, errors.Wrap(err, "invalid rule watcher configuration")
	}
	files, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "cannot create file watcher")
	}
	return &watcher{
		settings: settings,
		now:      now,
		files:    files,
		wake:     make(chan struct{}, 1),
		hub:      newHub(),
	}, nil
}

func (w *watcher) latest() *Status {
	w.m.RLock()
	defer w.m.RUnlock()
	return w.status
}

func (w *watcher) close() error {
	w.hub.close()
	return w.files.Close()
}

// poke requests an evaluation pass without blocking.
func (w *watcher) poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// watchFiles turns changes in the directory holding the rules file into
// evaluation passes.  The directory is watched rather than the file so that
// editors which replace the file are noticed.
func (w *watcher) watchFiles(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.files.Events:
			if !ok {
				return nil
			}
			logger.WithFields(logrus.Fields{
				"file": ev.Name,
				"op":   ev.Op.String(),
			}).Debug("Rules directory changed")
			w.poke()
		case err, ok := <-w.files.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warning("File watcher error")
		}
	}
}

func (w *watcher) watchDir(path string) {
	dir := filepath.Dir(path)
	w.m.Lock()
	defer w.m.Unlock()
	if dir == w.watched {
		return
	}
	if w.watched != "" {
		if err := w.files.Remove(w.watched); err != nil {
			logger.WithError(err).WithField("dir", w.watched).Debug("cannot stop watching directory")
		}
		w.watched = ""
	}
	if err := w.files.Add(dir); err != nil {
		logger.WithError(err).WithField("dir", dir).Warning("cannot watch rules directory, relying on periodic evaluation")
		return
	}
	w.watched = dir
}

func (w *watcher) run(ctx context.Context) error {
	for {
		v, err := w.settings.Get()
		if err != nil {
			// Keep polling until the configuration is fixed.
			logger.WithError(err).Error("invalid rule watcher configuration")
			if !w.sleep(ctx, defaultMaxInterval) {
				return ctx.Err()
			}
			continue
		}
		s := v.(*settings)
		w.watchDir(s.path)

		wait, err := w.pass(ctx, s)
		if err != nil {
			return err
		}
		if !w.sleep(ctx, wait) {
			return ctx.Err()
		}
	}
}

// sleep waits for d, a wake request, or cancellation.  It reports whether
// another pass should run.
func (w *watcher) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-w.wake:
		return true
	case <-t.C:
		return true
	}
}

// pass loads and evaluates the rules file once and returns how long to wait
// before the next pass.
func (w *watcher) pass(ctx context.Context, s *settings) (time.Duration, error) {
	start := time.Now()
	passID := xid.New().String()
	plog := logger.WithFields(logrus.Fields{
		"passId": passID,
		"path":   s.path,
	})

	root, err := w.load(ctx, s, plog)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		plog.WithError(err).Error("Skipping evaluation pass")
		return s.maxInterval, nil
	}
	ruleNodes := rules.LoadRules(root)

	now := iso8601.New(w.now().In(s.location).Truncate(time.Second))
	input := &rules.RuleInput{
		Now:       now,
		NodeAttrs: s.nodeAttrs,
	}
	outcomes, next, err := rules.EvaluateRules(ruleNodes, input)
	if err != nil {
		return 0, errors.Wrap(err, "cannot evaluate rules")
	}

	st := &Status{
		PassID:      passID,
		Path:        s.path,
		EvaluatedAt: now.Time(),
		Rules:       make([]RuleStatus, 0, len(outcomes)),
	}
	if !next.IsZero() {
		t := next.Time()
		st.NextChange = &t
	}
	for _, o := range outcomes {
		st.Rules = append(st.Rules, RuleStatus{
			ID:      o.ID,
			Verdict: o.Result.String(),
			Passed:  o.Result.Passed(),
		})
		telemetry.RecordUnitMeasurement(ctx, ruleEvaluations, tag.Upsert(keyVerdict, o.Result.String()))
	}

	w.publish(ctx, st, plog)
	telemetry.RecordNUnitMeasurement(ctx, rulesPerPass, int64(len(outcomes)))
	telemetry.RecordDuration(ctx, passLatency, time.Since(start))

	wait := s.maxInterval
	if st.NextChange != nil {
		if d := st.NextChange.Sub(now.Time()); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	plog.WithFields(logrus.Fields{
		"rules": len(outcomes),
		"wait":  wait.String(),
	}).Debug("Evaluation pass finished")
	return wait, nil
}

// load reads the rules file, retrying with backoff until it parses or ctx
// is cancelled.
func (w *watcher) load(ctx context.Context, s *settings, plog *logrus.Entry) (*xmltree.Node, error) {
	bo, err := expbo.New(s.retry)
	if err != nil {
		return nil, err
	}

	var root *xmltree.Node
	read := func() error {
		f, err := os.Open(s.path)
		if err != nil {
			return errors.Wrap(err, "cannot open rules file")
		}
		defer f.Close()
		root, err = xmltree.Parse(f)
		return err
	}
	notify := func(err error, d time.Duration) {
		telemetry.RecordUnitMeasurement(ctx, loadFailures)
		plog.WithError(err).WithField("retryIn", d.String()).Warning("cannot load rules file")
	}

	err = backoff.RetryNotify(read, backoff.WithContext(bo, ctx), notify)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(err, "giving up on rules file %s", s.path)
	}
	return root, nil
}

// publish stores st and logs every rule whose verdict differs from the
// previous pass.
func (w *watcher) publish(ctx context.Context, st *Status, plog *logrus.Entry) {
	w.m.Lock()
	prev := w.status
	w.status = st
	w.m.Unlock()
	w.hub.broadcast(st)

	before := map[string]string{}
	if prev != nil {
		for _, r := range prev.Rules {
			before[r.ID] = r.Verdict
		}
	}
	for _, r := range st.Rules {
		old, seen := before[r.ID]
		if seen && old == r.Verdict {
			continue
		}
		telemetry.RecordUnitMeasurement(ctx, verdictChanges, tag.Upsert(keyVerdict, r.Verdict))
		plog.WithFields(logrus.Fields{
			"rule":     r.ID,
			"verdict":  r.Verdict,
			"previous": old,
			"passed":   r.Passed,
		}).Info("Rule verdict changed")
	}
}
