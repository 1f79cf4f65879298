package providers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/log"
	"github.com/km-arc/go-inject/routing"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the application configuration into the
// container and loads container parameters.
//
// Bound services:
//   - "config"         → *config.Config
//   - "configuration"  → alias of "config"
//
// Parameters:
//   - app.name, app.env, app.debug, app.url, app.port
//   - every key of the YAML file named by ParametersFile, or
//     CONTAINER_PARAMETERS when empty, flattened to dotted keys
//
// Laravel equivalent:
//
//	// Illuminate\Foundation\Bootstrap\LoadConfiguration
//	$app->singleton('config', fn() => new Repository($items));
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles       []string
	Config         *config.Config // preloaded; Load(EnvFiles...) when nil
	ParametersFile string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg := p.Config
	if cfg == nil {
		cfg = config.Load(p.EnvFiles...)
	}
	if err := app.Instance("config", cfg); err != nil {
		return err
	}
	app.Alias("config", "configuration")

	for k, v := range cfg.Parameters() {
		app.SetParameter(k, v)
	}

	path := p.ParametersFile
	if path == "" {
		path = cfg.Container.Parameters
	}
	if path == "" {
		return nil
	}
	params, err := config.LoadParameters(path)
	if err != nil {
		return err
	}
	for k, v := range params {
		app.SetParameter(k, v)
	}
	log.Info(log.CatConfig, "parameters loaded", "file", path, "count", len(params))
	return nil
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider exposes the framework logger and applies the configured
// level at boot.
//
// Bound services:
//   - "log"  → *logrus.Logger
type LogServiceProvider struct {
	container.BaseProvider
}

func (p *LogServiceProvider) Register(app *container.Container) error {
	return app.Set("log", container.Func("Logger", func() *logrus.Logger { return log.Logger() }))
}

func (p *LogServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	log.SetLevel(cfg.Container.LogLevel)
	if !cfg.App.Debug {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Handlers registered by
// service name are resolved from the container on every request, and every
// service producing an http.Handler is tagged "http.handler".
//
// Bound services:
//   - "router"  → *routing.Router
//
// Laravel equivalent:
//
//	// Illuminate\Routing\RoutingServiceProvider
//	$app->singleton('router', fn($app) => new Router($app['events'], $app));
type RoutingServiceProvider struct {
	container.BaseProvider
}

// HandlerTag is the tag carried by services that produce an http.Handler.
const HandlerTag = "http.handler"

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	container.AutoTagImplements[http.Handler](app, HandlerTag)
	return app.Set("router", container.Class("Router", func(c *container.Container) *routing.Router {
		return routing.New(routing.WithContainer(c))
	}))
}

// ── InspectorServiceProvider ──────────────────────────────────────────────────

// InspectorServiceProvider mounts the container inspector routes when
// config.Container.Inspector is set and the application is not running in
// production.
//
// Bound services:
//   - "inspector"  → *gohttp.Inspector
type InspectorServiceProvider struct {
	container.BaseProvider
}

func (p *InspectorServiceProvider) Register(app *container.Container) error {
	return app.Set("inspector", container.Class("Inspector", func(c *container.Container) *gohttp.Inspector {
		return gohttp.NewInspector(c)
	}))
}

func (p *InspectorServiceProvider) Boot(app *container.Container) error {
	cfg, err := container.Resolve[*config.Config](app, "config")
	if err != nil {
		return err
	}
	if !cfg.Container.Inspector {
		return nil
	}
	if cfg.App.IsProduction() {
		log.Warn(log.CatHTTP, "inspector not mounted in production", "prefix", gohttp.InspectorPrefix)
		return nil
	}
	router, err := container.Resolve[*routing.Router](app, "router")
	if err != nil {
		return err
	}
	inspector, err := container.Resolve[*gohttp.Inspector](app, "inspector")
	if err != nil {
		return err
	}
	inspector.Register(router)
	log.Debug(log.CatHTTP, "inspector mounted", "prefix", gohttp.InspectorPrefix)
	return nil
}
