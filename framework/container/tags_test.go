package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
)

func cpuTarget() *container.Target {
	return container.Class("CpuReport", func() cpuReport { return cpuReport{} })
}

func memTarget() *container.Target {
	return container.Class("MemReport", func() memReport { return memReport{} })
}

func names(defs []*container.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Name)
	}
	return out
}

func TestFindByTag_RegistrationOrder(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "plain", Value: 1}))
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget(), Tags: []string{"reports", "hot"}}))

	assert.Equal(t, []string{"mem", "cpu"}, names(c.FindByTag("reports")))
	assert.Equal(t, []string{"cpu"}, names(c.FindByTag("hot")))
	assert.Empty(t, c.FindByTag("nothing"))

	// re-registering keeps the original position
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))
	assert.Equal(t, []string{"mem", "cpu"}, names(c.FindByTag("reports")))
}

func TestGetByTag_DropsNil(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget(), Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "none", Value: nil, Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))

	values, err := c.GetByTag("reports")
	require.NoError(t, err)
	assert.Equal(t, []any{cpuReport{}, memReport{}}, values)

	// the $$ form keeps every member
	n, err := c.Invoke(container.Inject(func(rs []any) int { return len(rs) }, "$$reports"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestTagReference_AsDependency(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget(), Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))
	require.NoError(t, c.Set("dashboard", container.Class("Dashboard", func(rs []any) []string {
		var titles []string
		for _, r := range rs {
			titles = append(titles, r.(Report).Title())
		}
		return titles
	}, "$$reports")))

	v, err := c.Get("dashboard")
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "mem"}, v)
}

func TestGetByTag_PropagatesErrors(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{
		Name:   "broken",
		Target: container.Class("Broken", func(l *Logger) *Logger { return l }, "missing"),
		Tags:   []string{"reports"},
	}))

	_, err := c.GetByTag("reports")
	var notFound *container.ServiceNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.Name)
}

func TestTag_AddsToExisting(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget()}))
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))

	c.Tag([]string{"cpu", "unknown"}, "reports")
	c.Tag([]string{"mem"}, "reports")

	assert.Equal(t, []string{"cpu", "mem"}, names(c.FindByTag("reports")))
	d, err := c.Lookup("mem")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports"}, d.Tags)
}

func TestResolveTag_Typed(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget(), Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "count", Value: 3, Tags: []string{"reports"}}))
	require.NoError(t, c.Register(container.Definition{Name: "mem", Target: memTarget(), Tags: []string{"reports"}}))

	reports, err := container.ResolveTag[Report](c, "reports")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "cpu", reports[0].Title())
	assert.Equal(t, "mem", reports[1].Title())
}

// ── Auto-tagging ──────────────────────────────────────────────────────────────

func TestAutoTagImplements(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "early", Target: memTarget()}))

	container.AutoTagImplements[Report](c, "reports")

	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget()}))
	require.NoError(t, c.Register(container.Definition{Name: "value", Value: memReport{}}))
	require.NoError(t, c.Register(container.Definition{Name: "logger", Target: container.Class("Logger", func() *Logger { return &Logger{} })}))
	require.NoError(t, c.Register(container.Definition{Name: "explicit", Target: cpuTarget(), Tags: []string{"custom"}}))

	assert.Equal(t, []string{"cpu", "value"}, names(c.FindByTag("reports")),
		"classification is not retroactive and explicit tags skip it")
}

func TestAutoTag_OutputsAreConcatenated(t *testing.T) {
	c := container.New()
	c.AutoTagWhen(func(*container.Definition) bool { return true }, "a")
	c.AutoTag(func(d *container.Definition) []string {
		if d.Private {
			return []string{"private"}
		}
		return []string{"b", "c"}
	})

	require.NoError(t, c.Register(container.Definition{Name: "shared", Value: 1}))
	require.NoError(t, c.Register(container.Definition{Name: "hidden", Value: 2, Private: true}))

	shared, err := c.Lookup("shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, shared.Tags)

	hidden, err := c.Lookup("hidden")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "private"}, hidden.Tags)
}

func TestTagged_ParameterWinsAfterCaching(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(container.Definition{Name: "cpu", Target: cpuTarget(), Tags: []string{"reports"}}))

	_, err := c.GetByTag("reports")
	require.NoError(t, err)
	require.True(t, c.Resolved("cpu"))

	c.SetParameter("cpu", "overridden")
	v, err := c.Get("cpu")
	require.NoError(t, err)
	assert.Equal(t, "overridden", v)
}
