package container

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/km-arc/go-inject/framework/container"

// Option configures a Container.
type Option func(*Container)

// WithTracer sets the tracer used for top-level Get/Invoke spans. The
// default is the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) { c.tracer = t }
}

// WithFactorySuffix treats targets whose name ends in suffix as factories
// even when their Definition does not set IsFactory.
//
//	c := container.New(container.WithFactorySuffix("Factory"))
func WithFactorySuffix(suffix string) Option {
	return func(c *Container) { c.factorySuffix = suffix }
}

// WithoutSelfBinding skips registering the container under "container".
func WithoutSelfBinding() Option {
	return func(c *Container) { c.selfBinding = false }
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
