package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
)

func newGreeterFactoryTarget() *container.Target {
	return container.Class("GreeterFactory", func(word string) *GreeterFactory {
		return &GreeterFactory{Word: word}
	}, "$word").Method("Create", container.Dep("$name"))
}

// ── Overrides ─────────────────────────────────────────────────────────────────

func TestSetFactory_FuncOverridesAndEvicts(t *testing.T) {
	c := container.New()
	c.SetParameter("mail.from", "app")
	require.NoError(t, c.Set("mailer", newMailerTarget()))

	before := container.MustResolve[*Mailer](c, "mailer")
	assert.Equal(t, "app", before.From)

	require.NoError(t, c.SetFactory("Mailer", container.FactoryFunc(func(_ *container.Container, args ...any) (any, error) {
		return &Mailer{From: "factory:" + args[0].(string)}, nil
	})))
	assert.False(t, c.Resolved("mailer"), "setting a factory evicts cached instances")

	after := container.MustResolve[*Mailer](c, "mailer")
	assert.Equal(t, "factory:app", after.From)
	assert.NotSame(t, before, after)

	require.NoError(t, c.RemoveFactory("Mailer"))
	restored := container.MustResolve[*Mailer](c, "mailer")
	assert.Equal(t, "app", restored.From)
}

func TestSetFactory_PlainFuncAndTargetToken(t *testing.T) {
	c := container.New()
	c.SetParameter("mail.from", "app")
	mailerT := newMailerTarget()
	require.NoError(t, c.Set("mailer", mailerT))
	require.NoError(t, c.Register(container.Definition{Name: "backup", Target: mailerT}))

	require.NoError(t, c.SetFactory(mailerT, func(from string) *Mailer {
		return &Mailer{From: "stub:" + from}
	}))
	assert.True(t, c.HasFactory("Mailer"))
	assert.True(t, c.HasFactory(mailerT))

	for _, name := range []string{"mailer", "backup"} {
		m := container.MustResolve[*Mailer](c, name)
		assert.Equal(t, "stub:app", m.From, name)
	}
}

func TestSetFactory_ConstructibleTarget(t *testing.T) {
	c := container.New()
	c.SetParameter("word", "hi")
	require.NoError(t, c.Register(container.Definition{
		Name:       "greeter",
		Target:     container.Class("Greeter", func() *Greeter { return &Greeter{} }),
		Parameters: []any{container.Literal("bob")},
	}))
	require.NoError(t, c.SetFactory("Greeter", container.Class("GreeterFactory", func(word string) *GreeterFactory {
		return &GreeterFactory{Word: word}
	}, "$word")))

	g, err := container.Resolve[*Greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "hi, bob", g.Greeting)
}

func TestSetFactory_CreateDependencies(t *testing.T) {
	c := container.New()
	loggerT, _ := countedLogger()
	require.NoError(t, c.Set("logger", loggerT))
	require.NoError(t, c.Register(container.Definition{
		Name:       "greeter",
		Target:     container.Class("Greeter", func() *Greeter { return &Greeter{} }),
		Parameters: []any{container.Literal("alice")},
	}))
	factoryT := container.Class("LoggingGreeterFactory", func() LoggingGreeterFactory { return LoggingGreeterFactory{} }).
		Method("Create", container.Dep("logger"), container.Arg("name"))
	require.NoError(t, c.SetFactory("Greeter", factoryT))

	g := container.MustResolve[*Greeter](c, "greeter")
	assert.Equal(t, "hello, alice", g.Greeting)
	assert.Equal(t, []string{"create alice"}, container.MustResolve[*Logger](c, "logger").lines)
}

func TestSetFactory_Object(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{
		Name:       "greeter",
		Target:     container.Class("Greeter", func() *Greeter { return &Greeter{} }),
		Parameters: []any{container.Literal("carol")},
	}))
	require.NoError(t, c.SetFactory("Greeter", &GreeterFactory{Word: "yo"}))

	g := container.MustResolve[*Greeter](c, "greeter")
	assert.Equal(t, "yo, carol", g.Greeting)
}

func TestSetFactory_Invalid(t *testing.T) {
	c := container.New()
	var invalid *container.InvalidFactoryError

	assert.ErrorAs(t, c.SetFactory("Greeter", 42), &invalid)
	assert.ErrorAs(t, c.SetFactory("Greeter", nil), &invalid)
	assert.ErrorAs(t, c.SetFactory("", func() int { return 1 }), &invalid)
	assert.ErrorAs(t, c.SetFactory(3.14, func() int { return 1 }), &invalid)
	assert.False(t, c.HasFactory("Greeter"))
}

func TestClearFactories(t *testing.T) {
	c := container.New()
	c.SetParameter("mail.from", "app")
	require.NoError(t, c.Set("mailer", newMailerTarget()))
	require.NoError(t, c.SetFactory("Mailer", func(string) *Mailer { return &Mailer{From: "fake"} }))

	assert.Equal(t, "fake", container.MustResolve[*Mailer](c, "mailer").From)

	c.ClearFactories()
	assert.False(t, c.HasFactory("Mailer"))
	assert.Equal(t, "app", container.MustResolve[*Mailer](c, "mailer").From)
}

// ── Factory definitions ───────────────────────────────────────────────────────

func TestFactoryDefinition(t *testing.T) {
	c := container.New()
	c.SetParameter("word", "hello")
	c.SetParameter("name", "dave")
	require.NoError(t, c.Register(container.Definition{
		Name:      "greeter",
		Target:    newGreeterFactoryTarget(),
		IsFactory: true,
	}))

	g, err := container.Resolve[*Greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "hello, dave", g.Greeting)
	assert.Same(t, g, container.MustResolve[*Greeter](c, "greeter"), "factory products are shared by default")
}

func TestFactoryDefinition_FunctionGetsContainer(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{
		Name:      "self",
		Target:    container.Func("self", func(inv container.Invocation) any { return inv.Context }),
		IsFactory: true,
	}))

	v, err := c.Get("self")
	require.NoError(t, err)
	assert.Same(t, c, v)
}

func TestFactoryDefinition_WithoutCreate(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{
		Name:      "logger",
		Target:    container.Class("Logger", func() *Logger { return &Logger{} }),
		IsFactory: true,
	}))

	_, err := c.Get("logger")
	var invalid *container.InvalidFactoryError
	assert.ErrorAs(t, err, &invalid)
}

func TestFactorySuffix(t *testing.T) {
	c := container.New(container.WithFactorySuffix("Factory"))
	c.SetParameter("word", "hey")
	c.SetParameter("name", "erin")
	require.NoError(t, c.Set("greeter", newGreeterFactoryTarget()))

	v, err := c.Get("greeter")
	require.NoError(t, err)
	require.IsType(t, &Greeter{}, v)
	assert.Equal(t, "hey, erin", v.(*Greeter).Greeting)
}

func TestFactorySuffix_OptIn(t *testing.T) {
	c := container.New()
	c.SetParameter("word", "hey")
	require.NoError(t, c.Set("greeter", newGreeterFactoryTarget()))

	v, err := c.Get("greeter")
	require.NoError(t, err)
	assert.IsType(t, &GreeterFactory{}, v, "without the option a Factory suffix means nothing")
}
