// Copyright 2022 Dimitrij Drus <dadrus@gmx.de>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dadrus/bifrost/internal/aup"
	"github.com/dadrus/bifrost/internal/authn"
	"github.com/dadrus/bifrost/internal/authn/handlers"
	"github.com/dadrus/bifrost/internal/bifrost"
	"github.com/dadrus/bifrost/internal/cache"
	_ "github.com/dadrus/bifrost/internal/cache/memory" // registers the memory cache
	_ "github.com/dadrus/bifrost/internal/cache/redis"  // registers the redis cache
	"github.com/dadrus/bifrost/internal/config"
	"github.com/dadrus/bifrost/internal/consent"
	"github.com/dadrus/bifrost/internal/flow"
	"github.com/dadrus/bifrost/internal/logging"
	"github.com/dadrus/bifrost/internal/metrics"
	"github.com/dadrus/bifrost/internal/mfa"
	"github.com/dadrus/bifrost/internal/tracing"
	"github.com/dadrus/bifrost/internal/watcher"
	"github.com/dadrus/bifrost/internal/webflow"
	"github.com/dadrus/bifrost/internal/x/errorchain"
	"github.com/dadrus/bifrost/version"
)

const defaultTicketTTL = 8 * time.Hour

type options struct {
	logger     *zerolog.Logger
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	configFile config.ConfigurationPath
	envPrefix  config.EnvVarPrefix
}

type Option func(o *options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

func WithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(o *options) {
		if registerer != nil && gatherer != nil {
			o.registerer = registerer
			o.gatherer = gatherer
		}
	}
}

// WithConfigSource enables reloading the handler plan whenever the given file changes.
func WithConfigSource(configFile config.ConfigurationPath, envPrefix config.EnvVarPrefix) Option {
	return func(o *options) {
		o.configFile = configFile
		o.envPrefix = envPrefix
	}
}

// App holds all components assembled from one configuration.
type App struct {
	conf      *config.Configuration
	logger    zerolog.Logger
	registry  *authn.Registry
	providers *mfa.Providers
	flows     *webflow.Flows
	executor  *flow.Executor
	store     cache.Cache
	aup       aup.Repository
	tracer    tracing.Provider
	gatherer  prometheus.Gatherer

	configFile config.ConfigurationPath
	envPrefix  config.EnvVarPrefix
	watcher    *watcher.FileWatcher
	reloadMut  sync.Mutex
}

func New(conf *config.Configuration, opts ...Option) (*App, error) { // nolint: funlen, cyclop
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		logger := logging.NewLogger(conf.Log)
		o.logger = &logger
	}

	if o.registerer == nil {
		o.registerer, o.gatherer = metrics.NewRegistry()
	}

	app := &App{
		conf:       conf,
		logger:     *o.logger,
		gatherer:   o.gatherer,
		configFile: o.configFile,
		envPrefix:  o.envPrefix,
	}

	var (
		managerOpts  []authn.ManagerOption
		providerOpts []mfa.Option
		executorOpts = []flow.ExecutorOption{flow.WithMaxTransitions(conf.Webflow.Executions.MaxTransitions)}
		err          error
	)

	if conf.Metrics.Enabled {
		m, err := metrics.New(o.registerer)
		if err != nil {
			return nil, err
		}

		managerOpts = append(managerOpts, authn.WithAttemptObserver(m))
		providerOpts = append(providerOpts, mfa.WithDecisionObserver(m))
		executorOpts = append(executorOpts, flow.WithTransitionObserver(m))
	}

	if app.registry, err = newRegistry(app.logger, conf.Authentication); err != nil {
		return nil, err
	}

	manager := authn.NewManager(app.registry, managerOpts...)

	if app.providers, err = mfa.NewProviders(conf.MFA, app.registry, providerOpts...); err != nil {
		return nil, err
	}

	selector, err := mfa.NewSelector(conf.MFA.Triggers, app.providers)
	if err != nil {
		return nil, err
	}

	if conf.Webflow.AUP.Enabled {
		if app.aup, err = aup.New(conf.Webflow.AUP); err != nil {
			return nil, err
		}
	}

	var consentRepository consent.Repository
	if conf.Webflow.Consent.Enabled {
		consentRepository = consent.NewInMemoryRepository()
	}

	store := conf.Webflow.Executions.Store
	if app.store, err = cache.Create(store.Type, store.Config); err != nil {
		return nil, errorchain.NewWithMessage(bifrost.ErrConfiguration, "failed creating execution store").
			CausedBy(err)
	}

	app.flows, err = webflow.New(webflow.Dependencies{
		Manager:   manager,
		Providers: app.providers,
		Selector:  selector,
		AUP:       app.aup,
		Consent:   consentRepository,
		Tickets:   webflow.NewTicketRegistry(app.store, defaultTicketTTL),
		MFA:       conf.MFA,
		Webflow:   conf.Webflow,
	})
	if err != nil {
		return nil, err
	}

	app.tracer, err = tracing.NewProvider(context.Background(), conf.Tracing, version.Version, app.logger)
	if err != nil {
		return nil, err
	}

	executorOpts = append(executorOpts, flow.WithTracerProvider(app.tracer))

	app.executor = flow.NewExecutor(app.flows.Graphs, app.flows.Actions,
		flow.NewCursorStore(app.store, conf.Webflow.Executions.TTL), executorOpts...)

	return app, nil
}

func newRegistry(logger zerolog.Logger, conf config.AuthenticationConfig) (*authn.Registry, error) {
	return authn.NewRegistryFrom(
		handlers.Configurer(logger, conf.Handlers),
		authn.PlanConfigurer(conf),
	)
}

func (a *App) Config() *config.Configuration { return a.conf }
func (a *App) Executor() *flow.Executor      { return a.executor }
func (a *App) Flows() *webflow.Flows         { return a.flows }
func (a *App) Registry() *authn.Registry     { return a.registry }
func (a *App) Providers() *mfa.Providers     { return a.providers }
func (a *App) Gatherer() prometheus.Gatherer { return a.gatherer }

func (a *App) Start(ctx context.Context) error {
	if err := a.store.Start(ctx); err != nil {
		return errorchain.NewWithMessage(bifrost.ErrInternal, "failed starting execution store").CausedBy(err)
	}

	if len(a.configFile) == 0 {
		return nil
	}

	fw, err := watcher.New(a.logger)
	if err != nil {
		return err
	}

	if err = fw.Add(string(a.configFile), a); err != nil {
		_ = fw.Stop(ctx)

		return err
	}

	a.watcher = fw

	return fw.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	var errs []error

	if a.watcher != nil {
		errs = append(errs, a.watcher.Stop(ctx))
	}

	errs = append(errs, a.store.Stop(ctx), a.tracer.Shutdown(ctx))

	if closer, ok := a.aup.(aup.Closer); ok {
		errs = append(errs, closer.Close(ctx))
	}

	return errors.Join(errs...)
}

// Reload reads the configuration again and replaces the handler plan. If anything goes
// wrong, the current plan stays in place. Flows and providers are not reloaded.
func (a *App) Reload() error {
	a.reloadMut.Lock()
	defer a.reloadMut.Unlock()

	conf, err := config.NewConfiguration(a.envPrefix, a.configFile)
	if err != nil {
		return err
	}

	registry, err := newRegistry(a.logger, conf.Authentication)
	if err != nil {
		return err
	}

	a.registry.Swap(registry)

	return nil
}

func (a *App) OnChanged(logger zerolog.Logger) {
	if err := a.Reload(); err != nil {
		logger.Warn().Err(err).Str("_file", string(a.configFile)).
			Msg("Configuration reload failed, keeping the current authentication plan")

		return
	}

	logger.Info().Str("_file", string(a.configFile)).Msg("Authentication plan reloaded")
}
