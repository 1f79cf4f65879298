// Package container provides a dependency-injection container with explicit
// service definitions, shared and private lifetimes, factory overrides,
// tags, and eager or late-bound property injection.
//
// # Overview
//
// Services are described by Definitions. A Definition wraps a Target (a
// constructor declared with Class or a function declared with Func) or a
// bare Value, lists the references resolved into the target's arguments,
// and optionally lists struct fields to inject after construction.
//
// Go has no constructor annotations, so the dependency list is explicit:
// it is given when the Target is declared and can be overridden per
// Definition.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot()        // safe to resolve everything after this
//  4. Serve requests
//
// # References
//
//	"logger"     // service, or a parameter of the same name (parameters win)
//	"$dsn"       // parameter, ParameterNotFoundError when missing
//	"$$reports"  // every service tagged "reports", in registration order
//	container.Class("Clock", NewClock)       // ad-hoc target
//	container.Inject(fn, "logger")           // array form: deps..., fn
//	container.Method(obj, "Handle")          // object/method pair
//	container.Literal("plain string")        // passed through unchanged
//
// # Definitions
//
//	// Shared: built once, cached
//	c.Set("logger", container.Class("Logger", NewLogger, "$log.level"))
//
//	// Private: built on every resolution
//	c.Register(container.Definition{
//	    Name:    "mailer",
//	    Target:  container.Class("Mailer", NewMailer),
//	    Private: true,
//	    Properties: map[string]container.Property{
//	        "Logger": {Source: "logger", LateBinding: true},
//	    },
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Parameter
//	c.SetParameter("log.level", "debug")
//
// Register replaces a definition wholesale; Add merges into it.
//
// # Resolving
//
//	v, err := c.Get("mailer")
//	mailer, err := container.Resolve[*Mailer](c, "mailer")
//	n, err := c.Invoke(container.Inject(func(m *Mailer) int { return m.Sent() }, "mailer"))
//
// Errors raised while resolving carry the chain of names being resolved
// (ResolutionError.Trail, "a -> b -> c"). A service depending on itself
// fails with CircularDependencyError.
//
// # Late binding
//
// A property with LateBinding set must be a Lazy[T] field. Nothing is
// resolved at construction; the first Get resolves and memoises the value.
//
//	type Mailer struct {
//	    Logger container.Lazy[*Logger]
//	}
//
// # Factories
//
//	// Override how every definition built from a target is constructed
//	c.SetFactory("Mailer", func(c *container.Container, args ...any) (any, error) {
//	    return &FakeMailer{}, nil
//	})
//
// Setting a factory evicts instances cached for that target.
//
// # Tags
//
//	c.Register(container.Definition{Name: "cpu", Target: cpuReport, Tags: []string{"reports"}})
//	reports, err := c.GetByTag("reports")
//
//	// Classify definitions registered from now on
//	container.AutoTagImplements[Report](c, "reports")
//
// # Deferred calls
//
//	send, err := c.InvokeLater(mailer, "Send") // deps resolved on first call
//	send("ops@example.com")
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
package container
