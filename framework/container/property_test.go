package container_test

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/km-arc/go-inject/framework/container"
)

// Shared definitions hand out one instance; private ones a new instance on
// every resolution, however often and in whatever order they are resolved.
func TestProperty_Lifetimes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := container.New()
		private := rapid.SliceOfN(rapid.Bool(), 1, 8).Draw(t, "private")
		for i, p := range private {
			must(t, c.Register(container.Definition{
				Name:    fmt.Sprintf("svc%d", i),
				Target:  container.Class("Logger", func() *Logger { return &Logger{} }),
				Private: p,
			}))
		}

		seen := make(map[string]*Logger)
		calls := rapid.SliceOfN(rapid.IntRange(0, len(private)-1), 1, 30).Draw(t, "calls")
		for _, i := range calls {
			name := fmt.Sprintf("svc%d", i)
			v, err := container.Resolve[*Logger](c, name)
			must(t, err)
			prev, ok := seen[name]
			switch {
			case !ok:
			case private[i] && prev == v:
				t.Fatalf("%s is private but resolved to the same instance twice", name)
			case !private[i] && prev != v:
				t.Fatalf("%s is shared but resolved to two instances", name)
			}
			seen[name] = v
		}
	})
}

// Tagged services come back in registration order.
func TestProperty_TagOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		all := make([]string, n)
		for i := range all {
			all[i] = fmt.Sprintf("svc%d", i)
		}
		order := rapid.Permutation(all).Draw(t, "order")
		tagged := rapid.SliceOfN(rapid.Bool(), n, n).Draw(t, "tagged")

		c := container.New()
		var want []any
		for i, name := range order {
			def := container.Definition{Name: name, Value: name}
			if tagged[i] {
				def.Tags = []string{"group"}
				want = append(want, name)
			}
			must(t, c.Register(def))
		}

		got, err := c.GetByTag("group")
		must(t, err)
		if len(got) != len(want) {
			t.Fatalf("got %d tagged services, want %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("position %d: got %v, want %v", i, got[i], want[i])
			}
		}
	})
}

func must(t *rapid.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
