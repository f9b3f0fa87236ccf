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

// Package appmain contains the common application initialization code for rulekeeper servers.
package appmain

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/stats/view"
	"rulekeeper.dev/rulekeeper/internal/config"
	"rulekeeper.dev/rulekeeper/internal/logging"
	"rulekeeper.dev/rulekeeper/internal/signal"
	"rulekeeper.dev/rulekeeper/internal/telemetry"
	"rulekeeper.dev/rulekeeper/internal/util"
)

var (
	logger = logrus.WithFields(logrus.Fields{
		"app":       "rulekeeper",
		"component": "app.main",
	})
)

const (
	shutdownTimeout = 10 * time.Second
)

// RunApplication starts and runs the given application until it receives
// SIGTERM or SIGINT.  For use in main functions to run the full application.
func RunApplication(serverName string, bindService Bind) {
	wait, _ := signal.New()

	a, err := StartApplication(serverName, bindService, config.Read, net.Listen)
	if err != nil {
		logger.Fatal(err)
	}

	s := wait()
	logger.WithField("signal", s).Info("Stopping application.")
	err = a.Stop()
	if err != nil {
		logger.Fatal(err)
	}
	logger.Info("Application stopped successfully.")
}

// Bind is a function which starts an application, and binds it to serving.
type Bind func(p *Params, b *Bindings) error

// Params are inputs to starting an application.
type Params struct {
	config      config.View
	serviceName string
	now         func() time.Time
}

// Config provides the configuration for the application.
func (p *Params) Config() config.View {
	return p.config
}

// ServiceName is the name the application was started with.
func (p *Params) ServiceName() string {
	return p.serviceName
}

// Now returns the clock the application should use.
func (p *Params) Now() func() time.Time {
	return p.now
}

// Bindings allows applications to bind various functions to the running servers.
type Bindings struct {
	mux          *http.ServeMux
	healthChecks []func(context.Context) error
	closers      *util.MultiClose
}

// AddHealthCheckFunc allows an application to check if it is ready, and
// contribute to the overall server health.
func (b *Bindings) AddHealthCheckFunc(f func(context.Context) error) {
	b.healthChecks = append(b.healthChecks, f)
}

// TelemetryHandle serves handler on the application's HTTP port.
func (b *Bindings) TelemetryHandle(pattern string, handler http.Handler) {
	b.mux.Handle(pattern, handler)
}

// TelemetryHandleFunc serves handler on the application's HTTP port.
func (b *Bindings) TelemetryHandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	b.mux.HandleFunc(pattern, handler)
}

// RegisterViews registers opencensus views for the lifetime of the
// application.
func (b *Bindings) RegisterViews(v ...*view.View) {
	if err := view.Register(v...); err != nil {
		logger.WithError(err).Error("cannot register views")
		return
	}
	b.AddCloser(func() {
		view.Unregister(v...)
	})
}

// AddCloser runs c when the application stops.
func (b *Bindings) AddCloser(c func()) {
	b.closers.AddCloseFunc(c)
}

// AddCloserErr runs c when the application stops.
func (b *Bindings) AddCloserErr(c func() error) {
	b.closers.AddCloseWithErrorFunc(c)
}

// App is a started application.
type App struct {
	closers *util.MultiClose
	addr    net.Addr
}

// StartApplication provides more control over an application than
// RunApplication.  It is for running in memory tests against your app.
func StartApplication(serverName string, bindService Bind, getCfg func() (config.View, error), listen func(network, address string) (net.Listener, error)) (*App, error) {
	cfg, err := getCfg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read configuration")
	}
	logging.ConfigureLogging(cfg)

	a := &App{closers: util.NewMultiClose()}
	p := &Params{
		config:      cfg,
		serviceName: serverName,
		now:         time.Now,
	}
	b := &Bindings{
		mux:     http.NewServeMux(),
		closers: a.closers,
	}

	err = telemetry.Setup(p, b)
	if err != nil {
		surfaceStopError(a.Stop())
		return nil, err
	}

	err = bindService(p, b)
	if err != nil {
		surfaceStopError(a.Stop())
		return nil, err
	}
	b.mux.Handle(telemetry.HealthCheckEndpoint, telemetry.NewHealthCheck(b.healthChecks))

	address := fmt.Sprintf(":%d", cfg.GetInt("api."+serverName+".httpport"))
	l, err := listen("tcp", address)
	if err != nil {
		surfaceStopError(a.Stop())
		return nil, errors.Wrapf(err, "cannot listen on %s", address)
	}
	a.addr = l.Addr()

	srv := &http.Server{Handler: b.mux}
	go func() {
		serr := srv.Serve(l)
		if serr != nil && serr != http.ErrServerClosed {
			logger.WithError(serr).Error("HTTP server stopped unexpectedly")
		}
	}()
	b.AddCloserErr(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})

	logger.WithFields(logrus.Fields{
		"service": serverName,
		"address": a.addr.String(),
	}).Info("Server is serving")
	return a, nil
}

// Addr is the address the HTTP server listens on.
func (a *App) Addr() net.Addr {
	return a.addr
}

// Stop closes everything the application bound, most recent first.
func (a *App) Stop() error {
	return a.closers.Close()
}

func surfaceStopError(err error) {
	if err != nil {
		logger.WithError(err).Error("cannot stop application after failed start")
	}
}
