package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/log"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/routing"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
var ShutdownTimeout = 10 * time.Second

// Application is the top-level application container.
// It embeds the service Container and ProviderRegistry so user code can
// call app.Set(), app.Get(), app.Register() directly,
// like $app in Laravel's bootstrap/app.php.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// Options tune how New bootstraps the application.
type Options struct {
	EnvFiles       []string
	ParametersFile string // overrides CONTAINER_PARAMETERS
}

// New creates the application and registers the framework providers.
// Bootstrap failures panic.
func New(envFiles ...string) *Application {
	return NewWithOptions(Options{EnvFiles: envFiles})
}

// NewWithOptions is New with explicit options.
func NewWithOptions(opts Options) *Application {
	app, err := Bootstrap(opts)
	must(err)
	return app
}

// Bootstrap is NewWithOptions returning bootstrap failures instead of
// panicking.
func Bootstrap(opts Options) (*Application, error) {
	cfg := config.Load(opts.EnvFiles...)
	log.SetLevel(cfg.Container.LogLevel)

	c := container.New(container.WithFactorySuffix(cfg.Container.FactorySuffix))
	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
	}

	// Register framework core providers (same order as Laravel)
	core := []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg, ParametersFile: opts.ParametersFile},
		&providers.LogServiceProvider{},
		&providers.RoutingServiceProvider{},
		&providers.InspectorServiceProvider{},
	}
	for _, p := range core {
		if err := app.Providers.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) {
	must(a.Providers.Register(provider))
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	must(a.Providers.Boot())
}

// Config resolves *config.Config from the container.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, "config")
}

// Router resolves *routing.Router from the container.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, "router")
}

// Run boots the application (if needed) and serves HTTP on APP_PORT until
// ctx is cancelled, then shuts the server down gracefully.
func (a *Application) Run(ctx context.Context) error {
	cfg := a.Config()
	ln, err := net.Listen("tcp", ":"+cfg.App.Port)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	if err := a.Providers.Boot(); err != nil {
		return err
	}
	cfg := a.Config()
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info(log.CatHTTP, "server started",
		"app", cfg.App.Name, "addr", ln.Addr().String(), "env", cfg.App.Env, "services", a.Size())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: shutdown: %w", err)
	}
	log.Info(log.CatHTTP, "server stopped")
	return nil
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("app: bootstrap failed: %v", err))
	}
}
